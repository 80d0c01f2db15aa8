// Package roomdrop provides a client for the roomdrop ephemeral sharing API.
package roomdrop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client is a roomdrop API client. Host keys for rooms created through the
// client are remembered in the config directory, the same way the web UI
// keeps them in browser storage.
type Client struct {
	BaseURL    string
	ConfigDir  string
	HTTPClient *http.Client

	hostKeys map[string]string
}

// NewClient creates a new roomdrop client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("ROOMDROP_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".roomdrop")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		hostKeys:   make(map[string]string),
	}

	_ = c.loadHostKeys()
	return c
}

func (c *Client) hostKeysFile() string {
	return filepath.Join(c.ConfigDir, "hostkeys.json")
}

func (c *Client) loadHostKeys() error {
	data, err := os.ReadFile(c.hostKeysFile())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &c.hostKeys)
}

func (c *Client) saveHostKeys() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}
	data, _ := json.MarshalIndent(c.hostKeys, "", "  ")
	return os.WriteFile(c.hostKeysFile(), data, 0600)
}

// apiError is the server's error envelope.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(method, path string, body, out interface{}, hdr map[string]string) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// Room is the sanitized room view returned by the API.
type Room struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	IsPrivate bool   `json:"isPrivate"`
}

// Message is a room entry.
type Message struct {
	ID        string `json:"id"`
	RoomID    string `json:"roomId"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	FileName  string `json:"fileName,omitempty"`
	FileSize  int64  `json:"fileSize,omitempty"`
	FileType  string `json:"fileType,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// CreateRoom creates a room and remembers its host key locally. The
// password is required when private is set.
func (c *Client) CreateRoom(private bool, password string) (string, error) {
	var body interface{}
	if private {
		body = map[string]interface{}{"isPrivate": true, "password": password}
	}

	var resp struct {
		RoomID  string `json:"roomId"`
		HostKey string `json:"hostKey"`
	}
	if err := c.do(http.MethodPost, "/api/rooms", body, &resp, nil); err != nil {
		return "", err
	}

	c.hostKeys[resp.RoomID] = resp.HostKey
	_ = c.saveHostKeys()

	return resp.RoomID, nil
}

// GetRoom fetches a room.
func (c *Client) GetRoom(roomID string) (*Room, error) {
	var room Room
	if err := c.do(http.MethodGet, "/api/rooms/"+roomID, nil, &room, nil); err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoom destroys a room using the locally remembered host key.
func (c *Client) DeleteRoom(roomID string) error {
	hostKey, ok := c.hostKeys[roomID]
	if !ok {
		return fmt.Errorf("no host key known for room %s", roomID)
	}
	err := c.do(http.MethodDelete, "/api/rooms/"+roomID, nil, nil,
		map[string]string{"X-Host-Key": hostKey})
	if err != nil {
		return err
	}
	delete(c.hostKeys, roomID)
	_ = c.saveHostKeys()
	return nil
}

// VerifyPassword checks a private room's password gate.
func (c *Client) VerifyPassword(roomID, password string) error {
	return c.do(http.MethodPost, "/api/rooms/"+roomID+"/verify",
		map[string]string{"password": password}, nil, nil)
}

// PostMessage submits a text message to a room.
func (c *Client) PostMessage(roomID, content string) (*Message, error) {
	var msg Message
	err := c.do(http.MethodPost, "/api/rooms/"+roomID+"/messages",
		map[string]string{"content": content}, &msg, nil)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessages fetches a room's messages in ascending creation order.
func (c *Client) GetMessages(roomID string) ([]Message, error) {
	var msgs []Message
	if err := c.do(http.MethodGet, "/api/rooms/"+roomID+"/messages", nil, &msgs, nil); err != nil {
		return nil, err
	}
	return msgs, nil
}

// NearbyRooms lists rooms previously created from this client's address.
func (c *Client) NearbyRooms() ([]Room, error) {
	var rooms []Room
	if err := c.do(http.MethodGet, "/api/rooms/nearby", nil, &rooms, nil); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Health fetches the server health report.
func (c *Client) Health() (map[string]interface{}, error) {
	var resp map[string]interface{}
	if err := c.do(http.MethodGet, "/health", nil, &resp, nil); err != nil {
		return nil, err
	}
	return resp, nil
}
