package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (a *App) register(c *gin.Context) {
	var req registerRequest
	if !mustJSON(c, &req) {
		return
	}

	userID, err := a.users.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err, "Registration failed")
		return
	}
	token, expires, err := a.tokens.Issue(userID)
	if err != nil {
		writeServiceError(c, err, "Registration failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Registration successful!",
		"user_id":    userID,
		"token":      token,
		"expires_at": expires,
	})
}

func (a *App) login(c *gin.Context) {
	var req loginRequest
	if !mustJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := a.users.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(c, err, "Login failed")
		return
	}
	token, expires, err := a.tokens.Issue(user.ID)
	if err != nil {
		writeServiceError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful!",
		"user":       toUserView(user),
		"token":      token,
		"expires_at": expires,
	})
}

// logout is a courtesy endpoint; tokens are stateless and the client
// discards its copy.
func (a *App) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

func (a *App) me(c *gin.Context) {
	authUser, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	user, err := a.users.GetUser(c.Request.Context(), authUser.ID)
	if err != nil {
		writeServiceError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserView(user)})
}
