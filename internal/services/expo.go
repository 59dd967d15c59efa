package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ExpoService delivers push notifications through the Expo push gateway.
type ExpoService struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

func NewExpoService() *ExpoService {
	url := os.Getenv("EXPO_PUSH_URL")
	if url == "" {
		url = "https://exp.host/--/api/v2"
	}
	return &ExpoService{
		baseURL:     url,
		accessToken: os.Getenv("EXPO_ACCESS_TOKEN"),
		client:      &http.Client{},
	}
}

type expoPushMessage struct {
	To    string         `json:"to"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
	Sound string         `json:"sound,omitempty"`
}

func (s *ExpoService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// ValidPushToken reports whether the token looks like an Expo push token.
// Tokens are issued by the client SDK as ExponentPushToken[...].
func ValidPushToken(token string) bool {
	token = strings.TrimSpace(token)
	return strings.HasPrefix(token, "ExponentPushToken[") && strings.HasSuffix(token, "]")
}

// SendPush sends one notification to a device token.
func (s *ExpoService) SendPush(token, title, body string, data map[string]any) error {
	if !ValidPushToken(token) {
		return fmt.Errorf("invalid expo push token %q", token)
	}
	return s.makeRequest("POST", "/push/send", expoPushMessage{
		To:    token,
		Title: title,
		Body:  body,
		Data:  data,
		Sound: "default",
	})
}
