package errors

// Resume QA errors (service 21).
var (
	ErrQAInvalidRequest = Register(New(MakeCode(ServiceQA, CategoryRequest, 1), 400, "Invalid request"))

	ErrQAMissingVariable = Register(New(MakeCode(ServiceQA, CategoryConfig, 1), 500, "Prompt variable missing"))
	ErrQARetrieval       = Register(New(MakeCode(ServiceQA, CategoryNetwork, 1), 500, "Context retrieval failed"))
	ErrQAGeneration      = Register(New(MakeCode(ServiceQA, CategoryNetwork, 2), 500, "Answer generation failed"))
	ErrQAIndexing        = Register(New(MakeCode(ServiceQA, CategoryInternal, 1), 500, "Document indexing failed"))
	ErrQAInternal        = Register(New(MakeCode(ServiceQA, CategoryInternal, 2), 500, "Internal Server Error"))
)
