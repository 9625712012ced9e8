package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// GetActiveUser pulls the verified token claims that the auth
// middleware stashed on the request context.
func GetActiveUser(ctx *gin.Context) (TokenObject, error) {
	value, exists := ctx.Get("user")
	if !exists {
		return TokenObject{}, fmt.Errorf("not authorized to access this resource")
	}

	user, ok := value.(TokenObject)
	if !ok {
		return TokenObject{}, fmt.Errorf("malformed session context")
	}

	return user, nil
}
