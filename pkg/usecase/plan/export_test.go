package plan

var (
	KnowledgeQueryForTest = knowledgeQuery
	PromptProfileForTest  = promptProfile
)
