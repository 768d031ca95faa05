package supabase

import (
	"fmt"

	"github.com/google/uuid"
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
	// The Go client has no direct Realtime publish; status rows written to
	// the database trigger Realtime change events for subscribed clients.
	// This remains the seam for explicit event publishing via the REST API.
	return nil
}

func (r *RealtimeClient) PublishProductEvent(productID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("product:%s", productID.String())
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID.String())
	return r.PublishEvent(channel, event, payload)
}

// Event payloads

func FrontViewReadyPayload(productID, approvalID uuid.UUID, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"product_id":  productID.String(),
		"approval_id": approvalID.String(),
		"status":      "awaiting_decision",
		"image_url":   imageURL,
	}
}

func ViewGeneratedPayload(productID uuid.UUID, viewType, imageURL string, progress int) map[string]interface{} {
	return map[string]interface{}{
		"product_id": productID.String(),
		"status":     "generating_views",
		"view_type":  viewType,
		"image_url":  imageURL,
		"progress":   progress,
	}
}

func GenerationFailedPayload(productID uuid.UUID, stage, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"product_id": productID.String(),
		"status":     "failed",
		"stage":      stage,
		"error":      errorMsg,
	}
}

func RevisionActivatedPayload(productID uuid.UUID, viewType, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"product_id": productID.String(),
		"status":     "revision_activated",
		"view_type":  viewType,
		"image_url":  imageURL,
	}
}

func Model3DStatusPayload(sourceID string, status string, progress int) map[string]interface{} {
	return map[string]interface{}{
		"source_id": sourceID,
		"status":    status,
		"progress":  progress,
	}
}

func PrintPackReadyPayload(productID uuid.UUID, archiveURL string, included []string) map[string]interface{} {
	return map[string]interface{}{
		"product_id":  productID.String(),
		"status":      "print_pack_ready",
		"archive_url": archiveURL,
		"included":    included,
	}
}
