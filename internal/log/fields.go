package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldAction      = "action"
	FieldUserID      = "user_id"
	FieldTxID        = "transaction_id"
	FieldTxName      = "transaction_name"
	FieldTxType      = "transaction_type"
	FieldCategoryID  = "category_id"
	FieldAmountCents = "amount_cents"
	FieldPeriod      = "period"
	FieldNextDate    = "next_execution_date"
	FieldProcessed   = "processed_count"
	FieldEventID     = "event_id"
	FieldTimeframe   = "timeframe"
	FieldEmail       = "email"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentTx        = "transaction"
	ComponentCategory  = "category"
	ComponentAnalysis  = "analysis"
	ComponentEvent     = "event"
	ComponentAdmin     = "admin"
	ComponentChat      = "chat"
	ComponentRecurring = "recurring"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentMail      = "mail"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSearch   = "search"
	OpClaim    = "claim"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSend     = "send"
	OpLogin    = "login"
	OpSignup   = "signup"
	OpVerify   = "verify"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields is a builder for structured log attributes
type LogFields map[string]any

// NewFields creates an empty field set
func NewFields() LogFields {
	return LogFields{}
}

// WithComponent adds the component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds the operation field
func (f LogFields) WithOperation(operation string) LogFields {
	f[FieldOperation] = operation
	return f
}

// WithError adds the error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithUser adds the user id field
func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithTransaction adds transaction identity fields
func (f LogFields) WithTransaction(id int64, name string, amountCents int64) LogFields {
	f[FieldTxID] = id
	f[FieldTxName] = name
	f[FieldAmountCents] = amountCents
	return f
}

// WithClientIP adds the client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
