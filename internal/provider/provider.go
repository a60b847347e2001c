package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"convene/internal/models"
)

// ErrProviderUnavailable wraps any network or non-conflict HTTP failure from
// the external room host. It is surfaced to the caller as-is; there is no
// automatic retry.
var ErrProviderUnavailable = errors.New("room provider unavailable")

type createRoomRequest struct {
	Name            string `json:"name"`
	MaxParticipants int    `json:"max_participants"`
	Expiry          int64  `json:"expiry"`
}

type createRoomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client talks to the external video-hosting API that actually hosts rooms.
type Client struct {
	httpClient *resty.Client
	domain     string
	roomTTL    time.Duration
	log        *logrus.Entry
}

// NewClient builds a provider client. domain is used to derive room URLs
// deterministically when the host reports a room as already existing.
func NewClient(baseURL, apiKey, domain string, log *logrus.Entry) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		httpClient.SetAuthToken(apiKey)
	}
	return &Client{
		httpClient: httpClient,
		domain:     domain,
		roomTTL:    24 * time.Hour,
		log:        log,
	}
}

// CreateRoom creates a room on the external host, or fetches it if it
// already exists. A conflict response is success: the room URL is derived
// from the name, which makes creation idempotent under retries and
// duplicate calls.
func (c *Client) CreateRoom(ctx context.Context, name string, roomType models.RoomType) (models.RoomDescriptor, error) {
	var result createRoomResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(createRoomRequest{
			Name:            name,
			MaxParticipants: roomType.Capacity(),
			Expiry:          time.Now().Add(c.roomTTL).Unix(),
		}).
		SetResult(&result).
		Post("/rooms")
	if err != nil {
		return models.RoomDescriptor{}, fmt.Errorf("create room %s: %v: %w", name, err, ErrProviderUnavailable)
	}

	desc := models.RoomDescriptor{
		ID:              uuid.NewString(),
		Name:            name,
		Type:            roomType,
		MaxParticipants: roomType.Capacity(),
		Status:          models.RoomAvailable,
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		desc.Name = result.Name
		desc.URL = result.URL
	case http.StatusConflict:
		c.log.WithField("room", name).Debug("room already exists, deriving url")
		desc.URL = fmt.Sprintf("https://%s/%s", c.domain, name)
	default:
		return models.RoomDescriptor{}, fmt.Errorf("create room %s: status %d: %w", name, resp.StatusCode(), ErrProviderUnavailable)
	}
	return desc, nil
}
