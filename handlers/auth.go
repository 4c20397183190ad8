package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planfill/planfill-server/internal/device"
	"github.com/planfill/planfill-server/pkg/logger"
)

// PollRequest carries the device code the client received from /device/start
type PollRequest struct {
	DeviceCode string `json:"device_code" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	svc *device.Service
}

func NewAuthHandler(svc *device.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/device/start", h.StartDevice)
	a.POST("/device/poll", h.PollDevice)
	a.GET("/verify", h.Verify)
	a.GET("/callback", h.Callback)
}

// StartDevice creates a pending login session and returns the code pair
func (h *AuthHandler) StartDevice(c *gin.Context) {
	resp, err := h.svc.Start(c.Request.Context())
	if err != nil {
		logger.Errorf("device start failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start login"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PollDevice reports the session state to the waiting client.
// Pending and approved are 200; terminal failures map to distinct statuses
// so clients can stop polling.
func (h *AuthHandler) PollDevice(c *gin.Context) {
	var req PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_code required"})
		return
	}
	resp, err := h.svc.Poll(c.Request.Context(), req.DeviceCode)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, device.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_code"})
	case errors.Is(err, device.ErrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "expired"})
	case errors.Is(err, device.ErrDenied):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "denied"})
	default:
		logger.Errorf("device poll failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "poll failed"})
	}
}

// Verify serves the human side of the flow: without a user_code it renders
// the entry form, with one it forwards the browser to the identity provider.
func (h *AuthHandler) Verify(c *gin.Context) {
	userCode := c.Query("user_code")
	if userCode == "" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, verifyFormPage)
		return
	}
	loginURL, err := h.svc.BeginVerification(c.Request.Context(), userCode)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			renderMessage(c, http.StatusNotFound, "Unknown code",
				"That code is not valid or has expired. Please start the login again on your device.")
			return
		}
		logger.Errorf("verify lookup failed: %v", err)
		renderMessage(c, http.StatusInternalServerError, "Something went wrong",
			"Please try again in a moment.")
		return
	}
	c.Redirect(http.StatusFound, loginURL)
}

// Callback finishes the flow after the provider redirects back with
// code + state (state carries the device code).
func (h *AuthHandler) Callback(c *gin.Context) {
	authCode := c.Query("code")
	deviceCode := c.Query("state")
	if authCode == "" || deviceCode == "" {
		renderMessage(c, http.StatusBadRequest, "Login failed",
			"The sign-in response was incomplete. Please start again on your device.")
		return
	}

	email, err := h.svc.CompleteLogin(c.Request.Context(), deviceCode, authCode)
	switch {
	case err == nil:
		renderMessage(c, http.StatusOK, "You're signed in",
			"Signed in as "+email+". You can close this window and return to your device.")
	case errors.Is(err, device.ErrUnauthorizedEmail):
		renderMessage(c, http.StatusForbidden, "Not authorised",
			"This account is not authorised to use the service.")
	case errors.Is(err, device.ErrNotFound), errors.Is(err, device.ErrExpired):
		renderMessage(c, http.StatusBadRequest, "Session expired",
			"The login session is no longer valid. Please start again on your device.")
	case errors.Is(err, device.ErrConflict):
		renderMessage(c, http.StatusConflict, "Already completed",
			"This login was already completed. Check your device.")
	default:
		renderMessage(c, http.StatusBadGateway, "Login failed",
			"We could not confirm your sign-in. Please start again on your device.")
	}
}

const verifyFormPage = `<!DOCTYPE html>
<html>
<head><title>Device login</title></head>
<body>
<h1>Device login</h1>
<p>Enter the code shown on your device:</p>
<form method="GET" action="">
  <input type="text" name="user_code" placeholder="XXXX-XXXX" autofocus autocomplete="off">
  <button type="submit">Continue</button>
</form>
</body>
</html>`

var messageTmpl = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
</body>
</html>`))

func renderMessage(c *gin.Context, status int, title, body string) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	_ = messageTmpl.Execute(c.Writer, gin.H{"Title": title, "Body": body})
}
