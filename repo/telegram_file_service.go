package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TelegramFileResponse represents the response from getFile
type TelegramFileResponse struct {
	Ok     bool `json:"ok"`
	Result struct {
		FileID   string `json:"file_id"`
		FileSize int    `json:"file_size"`
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// FileService resolves Telegram file IDs to fetchable URLs, used when a
// user uploads a persona document through the bot.
type FileService struct {
	BotToken string
	BaseURL  string
}

func NewFileService(botToken string) *FileService {
	return &FileService{
		BotToken: botToken,
		BaseURL:  "https://api.telegram.org/bot",
	}
}

// ConvertFileIDToURL converts a Telegram file ID to a publicly accessible URL
func (s *FileService) ConvertFileIDToURL(ctx context.Context, fileID string) (string, error) {
	getFileURL := fmt.Sprintf("%s%s/getFile?file_id=%s", s.BaseURL, s.BotToken, fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, getFileURL, nil)
	if err != nil {
		return "", fmt.Errorf("error building getFile request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error getting file path: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var fileResponse TelegramFileResponse
	if err := json.Unmarshal(body, &fileResponse); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	if !fileResponse.Ok || fileResponse.Result.FilePath == "" {
		return "", fmt.Errorf("couldn't retrieve file path for file ID: %s", fileID)
	}

	fileURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", s.BotToken, fileResponse.Result.FilePath)

	return fileURL, nil
}
