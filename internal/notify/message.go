package notify

import (
	"encoding/json"
	"time"

	model "voltbay/internal/models"
	"voltbay/utils"
)

// Message builds a notification row ready to be written with the state change it describes
func Message(userID string, typ model.NotificationType, title, message string, data map[string]any, at time.Time) model.Notification {
	n := model.Notification{
		ID:        utils.GenerateID(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: at,
	}
	if len(data) > 0 {
		// map[string]any of strings and decimals always encodes
		raw, _ := json.Marshal(data)
		n.Data = raw
	}
	return n
}
