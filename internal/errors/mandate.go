package errors

// Sentinels for errors.Is checks. Only Kind is compared.
var (
	ErrValidation = &DomainError{Kind: KindValidation, Code: "BAD_REQUEST", Message: "validation failed"}
	ErrOverlap    = &DomainError{Kind: KindOverlap, Code: "SLAB_OVERLAP", Message: "slab range overlaps an active slab"}
	ErrNotFound   = &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "record not found"}
	ErrIntegrity  = &DomainError{Kind: KindIntegrity, Code: "INTEGRITY_CHECK_FAILED", Message: "message integrity check failed"}
	ErrDecryption = &DomainError{Kind: KindDecryption, Code: "DECRYPTION_FAILED", Message: "unable to decrypt payload"}
	ErrGateway    = &DomainError{Kind: KindGateway, Code: "GATEWAY_ERROR", Message: "payment gateway error"}
	ErrConflict   = &DomainError{Kind: KindConflict, Code: "CONFLICT", Message: "operation conflicts with an active record"}
)
