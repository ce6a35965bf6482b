package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ContextKeyOwner is the Gin context key under which the owner middleware
// stores the caller's owner identifier.
const ContextKeyOwner = "owner_id"

// Response is the standardized API response envelope.
type Response struct {
	Data     interface{} `json:"data"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// ErrorBody represents a structured error response.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Detail  string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata includes request tracing and timing. OwnerID is echoed on
// owner-scoped routes so clients can correlate streams and responses.
type Metadata struct {
	RequestID string `json:"request_id"`
	OwnerID   string `json:"owner_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ─── Helper builders ───────────────────────────────────────────────────────

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Data:     data,
		Metadata: buildMetadata(c),
	})
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	send(c, statusCode, &ErrorBody{Code: code, Message: GetMessage(code)})
}

// FailWithDetail sends an error response carrying a developer-facing detail,
// e.g. which transition the session refused.
func FailWithDetail(c *gin.Context, statusCode int, code ErrCode, detail string) {
	send(c, statusCode, &ErrorBody{Code: code, Message: GetMessage(code), Detail: detail})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	send(c, statusCode, &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code)},
		Metadata: buildMetadata(c),
	})
}

// ─── Internal helpers ──────────────────────────────────────────────────────

func send(c *gin.Context, statusCode int, body *ErrorBody) {
	c.JSON(statusCode, Response{
		Error:    body,
		Metadata: buildMetadata(c),
	})
}

func buildMetadata(c *gin.Context) Metadata {
	return Metadata{
		RequestID: RequestID(c),
		OwnerID:   c.GetString(ContextKeyOwner),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
