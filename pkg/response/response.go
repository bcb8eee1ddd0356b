package response

import "github.com/gin-gonic/gin"

// The portal's JSON envelope: successful responses carry success=true plus
// resource-specific keys, error responses carry a human-readable message
// and, where the contract defines one, a stable code.

// OK merges success=true into the given payload fields.
func OK(fields gin.H) gin.H {
	out := gin.H{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Err returns the standard error body.
func Err(message string) gin.H {
	return gin.H{"success": false, "message": message}
}

// ErrCode returns an error body with a stable machine-readable code.
func ErrCode(code, message string) gin.H {
	return gin.H{"success": false, "code": code, "message": message}
}
