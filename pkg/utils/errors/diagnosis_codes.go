package errors

import "google.golang.org/grpc/codes"

// Diagnosis service code: 20 (business service range 20-79).
// Error code format: AABBCCC.

var (
	// Common/base errors (service 00).
	ErrInternal = Register(New(MakeCode(ServiceCommon, CategoryInternal, 1), 500, codes.Internal, "Internal server error", "Error interno del servidor"))
	ErrTimeout  = Register(New(MakeCode(ServiceCommon, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "Operation timed out", "La operación excedió el tiempo límite"))

	// Request errors (category 01).
	ErrInvalidRequest = Register(New(MakeCode(ServiceDiagnosis, CategoryRequest, 1), 400, codes.InvalidArgument, "Invalid request parameters", "Parámetros de solicitud inválidos"))
	ErrInvalidQuery   = Register(New(MakeCode(ServiceDiagnosis, CategoryRequest, 2), 400, codes.InvalidArgument, "Symptom query is empty or malformed", "La consulta de síntomas está vacía o es inválida"))

	// Ingestion errors (category 07 - Internal).
	ErrParse        = Register(New(MakeCode(ServiceDiagnosis, CategoryInternal, 1), 500, codes.Internal, "Failed to parse nomenclature document", "Error al analizar el documento de nomenclatura"))
	ErrIngestFailed = Register(New(MakeCode(ServiceDiagnosis, CategoryInternal, 2), 500, codes.Internal, "Document ingestion failed", "La ingesta de documentos falló"))

	// Configuration errors (category 12).
	ErrConfig = Register(New(MakeCode(ServiceDiagnosis, CategoryConfig, 1), 500, codes.FailedPrecondition, "Invalid service configuration", "Configuración del servicio inválida"))

	// Infrastructure errors.
	ErrIndexUnavailable = Register(New(MakeCode(ServiceInfraIndex, CategoryNetwork, 1), 503, codes.Unavailable, "Vector index unavailable", "Índice vectorial no disponible"))
	ErrCache            = Register(New(MakeCode(ServiceInfraCache, CategoryCache, 1), 500, codes.Internal, "Cache operation failed", "La operación de caché falló"))

	// External LLM errors (service 90).
	ErrEmbedding    = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryNetwork, 1), 502, codes.Unavailable, "Embedding provider request failed", "La solicitud al proveedor de embeddings falló"))
	ErrGeneration   = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryNetwork, 2), 502, codes.Unavailable, "LLM generation request failed", "La solicitud de generación al LLM falló"))
	ErrLLMTimeout   = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryTimeout, 1), 504, codes.DeadlineExceeded, "LLM request timed out", "La solicitud al LLM excedió el tiempo límite"))
	ErrProviderInit = Register(New(MakeCode(ServiceThirdPartyLLM, CategoryConfig, 1), 500, codes.FailedPrecondition, "LLM provider initialization failed", "La inicialización del proveedor LLM falló"))
)
