package meet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"mentra/models"
)

// Adapter talks to a Zoom-style server-to-server OAuth meeting API.
// All failures are plain errors; callers decide whether they are fatal.
type Adapter struct {
	accountID    string
	clientID     string
	clientSecret string
	authURL      string
	apiBase      string
	client       *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var defaultAdapter = New()

func New() *Adapter {
	authURL := os.Getenv("MEETING_AUTH_URL")
	if authURL == "" {
		authURL = "https://zoom.us/oauth/token"
	}
	apiBase := os.Getenv("MEETING_API_BASE")
	if apiBase == "" {
		apiBase = "https://api.zoom.us/v2"
	}
	return &Adapter{
		accountID:    os.Getenv("MEETING_ACCOUNT_ID"),
		clientID:     os.Getenv("MEETING_CLIENT_ID"),
		clientSecret: os.Getenv("MEETING_CLIENT_SECRET"),
		authURL:      authURL,
		apiBase:      apiBase,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func Default() *Adapter { return defaultAdapter }

func (a *Adapter) IsConfigured() bool {
	return a.accountID != "" && a.clientID != "" && a.clientSecret != ""
}

func (a *Adapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExp.Add(-time.Minute)) {
		return a.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", a.accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.clientID, a.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("meeting auth failed: %s: %s", resp.Status, body)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	a.token = out.AccessToken
	a.tokenExp = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return a.token, nil
}

type meetingPayload struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Agenda    string          `json:"agenda,omitempty"`
	Settings  meetingSettings `json:"settings"`
}

type meetingSettings struct {
	JoinBeforeHost bool `json:"join_before_host"`
	WaitingRoom    bool `json:"waiting_room"`
}

type meetingResponse struct {
	ID        int64  `json:"id"`
	JoinURL   string `json:"join_url"`
	StartURL  string `json:"start_url"`
	Password  string `json:"password"`
	HostEmail string `json:"host_email"`
	HostID    string `json:"host_id"`
	Topic     string `json:"topic"`
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone"`
}

// CreateMeeting provisions a scheduled meeting room.
func (a *Adapter) CreateMeeting(ctx context.Context, topic string, start time.Time, durationMin int, timezone, agenda string) (*models.MeetingInfo, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := meetingPayload{
		Topic:     topic,
		Type:      2, // scheduled meeting
		StartTime: start.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  durationMin,
		Timezone:  timezone,
		Agenda:    agenda,
		Settings:  meetingSettings{JoinBeforeHost: true},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiBase+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("meeting create failed: %s: %s", resp.Status, raw)
	}

	var out meetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return toMeetingInfo(out), nil
}

// GetMeeting fetches an existing meeting room.
func (a *Adapter) GetMeeting(ctx context.Context, meetingID string) (*models.MeetingInfo, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+"/meetings/"+meetingID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("meeting get failed: %s: %s", resp.Status, raw)
	}

	var out meetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return toMeetingInfo(out), nil
}

// DeleteMeeting destroys a meeting room.
func (a *Adapter) DeleteMeeting(ctx context.Context, meetingID string) error {
	token, err := a.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.apiBase+"/meetings/"+meetingID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("meeting delete failed: %s: %s", resp.Status, raw)
	}
	return nil
}

func toMeetingInfo(m meetingResponse) *models.MeetingInfo {
	return &models.MeetingInfo{
		MeetingID: strconv.FormatInt(m.ID, 10),
		JoinURL:   m.JoinURL,
		StartURL:  m.StartURL,
		Password:  m.Password,
		HostEmail: m.HostEmail,
		HostID:    m.HostID,
		Topic:     m.Topic,
		Duration:  m.Duration,
		Timezone:  m.Timezone,
		CreatedAt: time.Now(),
	}
}
