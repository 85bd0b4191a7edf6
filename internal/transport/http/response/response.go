package response

import "github.com/gin-gonic/gin"

// Error writes the flat {"message": ...} body every failing endpoint
// returns, whatever the status code.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}
