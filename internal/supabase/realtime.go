package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Supabase Go client has no direct Realtime publish; database writes
	// trigger Realtime automatically. Kept as the single seam for explicit
	// event publishing via the Realtime REST API.
	return nil
}

// PublishUserEvent publishes a generation lifecycle event on the user channel
// the mobile app subscribes to.
func (r *RealtimeClient) PublishUserEvent(uid string, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", uid)
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func GenerationStartedPayload(uid string, imageCount int, stream bool) map[string]interface{} {
	return map[string]interface{}{
		"uid":         uid,
		"status":      "generating",
		"image_count": imageCount,
		"stream":      stream,
	}
}

func GenerationCompletedPayload(uid string, images []string) map[string]interface{} {
	return map[string]interface{}{
		"uid":    uid,
		"status": "completed",
		"images": images,
	}
}

func GenerationFailedPayload(uid string, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"uid":    uid,
		"status": "failed",
		"error":  errorMsg,
	}
}

func QuotaWarningPayload(uid string, message string) map[string]interface{} {
	return map[string]interface{}{
		"uid":     uid,
		"status":  "quota_warning",
		"message": message,
	}
}
