package telegram

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Webhook returns a handler that accepts Telegram webhook updates and
// dispatches them. Processing happens off the request goroutine; the
// endpoint acknowledges immediately so Telegram does not retry.
func (b *Bot) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		go b.HandleUpdate(context.Background(), update)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
