package lineworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/mtamaramu/authbroker/internal/errors"
)

// MaxImageSize is the platform's rich menu image size limit.
const MaxImageSize = 1024 * 1024

// ValidateImage enforces the size and type constraints before the upload
// sequence starts, so a doomed upload never consumes an attachment slot.
func ValidateImage(fileName string, size int64) error {
	if size > MaxImageSize {
		return errors.ErrImageTooLarge
	}
	lower := strings.ToLower(fileName)
	if !strings.HasSuffix(lower, ".png") && !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
		return errors.ErrUnsupportedImage
	}
	return nil
}

// UploadRichMenuImage runs the three-step upload sequence: request an
// attachment slot, POST the bytes to the slot's upload URL, then associate
// the file with the menu. One access token is minted up front and reused for
// all three steps to avoid a token mismatch mid-sequence. Any step's failure
// aborts the whole sequence; the caller restarts from step one with a new
// slot.
func (c *Client) UploadRichMenuImage(ctx context.Context, richMenuID, fileName string, image []byte) error {
	if err := ValidateImage(fileName, int64(len(image))); err != nil {
		return err
	}

	token, err := c.tokens.AccessToken(ctx, c.creds)
	if err != nil {
		return err
	}

	fileID, uploadURL, err := c.requestAttachmentSlot(ctx, token, fileName)
	if err != nil {
		return err
	}
	if err := c.uploadAttachment(ctx, token, uploadURL, fileName, image); err != nil {
		return err
	}
	return c.associateImage(ctx, token, richMenuID, fileID)
}

// requestAttachmentSlot is step one: obtain {fileId, uploadUrl}.
func (c *Client) requestAttachmentSlot(ctx context.Context, token, fileName string) (string, string, error) {
	body, err := json.Marshal(struct {
		FileName string `json:"fileName"`
	}{fileName})
	if err != nil {
		return "", "", errors.Wrapf(err, "[requestAttachmentSlot] marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.botURL("/attachments"), bytes.NewReader(body))
	if err != nil {
		return "", "", errors.Wrapf(err, "[requestAttachmentSlot] build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", errors.Wrapf(err, "[requestAttachmentSlot] request slot")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", errors.Wrapf(err, "[requestAttachmentSlot] read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("[requestAttachmentSlot] failed: %d %s", resp.StatusCode, respBody)
	}

	var slot struct {
		FileID    string `json:"fileId"`
		UploadURL string `json:"uploadUrl"`
	}
	if err := json.Unmarshal(respBody, &slot); err != nil {
		return "", "", errors.Wrapf(err, "[requestAttachmentSlot] decode response")
	}
	if slot.FileID == "" || slot.UploadURL == "" {
		return "", "", fmt.Errorf("[requestAttachmentSlot] incomplete slot in response")
	}
	return slot.FileID, slot.UploadURL, nil
}

// uploadAttachment is step two: POST the raw bytes as the slot's expected
// multipart field.
func (c *Client) uploadAttachment(ctx context.Context, token, uploadURL, fileName string, image []byte) error {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	if err := writer.WriteField("resourceName", fileName); err != nil {
		return errors.Wrapf(err, "[uploadAttachment] write resourceName field")
	}
	part, err := writer.CreateFormFile("Filedata", fileName)
	if err != nil {
		return errors.Wrapf(err, "[uploadAttachment] create file field")
	}
	if _, err := part.Write(image); err != nil {
		return errors.Wrapf(err, "[uploadAttachment] write image bytes")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrapf(err, "[uploadAttachment] finalize form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &form)
	if err != nil {
		return errors.Wrapf(err, "[uploadAttachment] build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[uploadAttachment] upload")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[uploadAttachment] failed: %d %s", resp.StatusCode, respBody)
	}
	return nil
}

// associateImage is step three: bind the uploaded file to the menu.
func (c *Client) associateImage(ctx context.Context, token, richMenuID, fileID string) error {
	body, err := json.Marshal(struct {
		FileID string `json:"fileId"`
	}{fileID})
	if err != nil {
		return errors.Wrapf(err, "[associateImage] marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.botURL("/richmenus/"+richMenuID+"/image"), bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "[associateImage] build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[associateImage] associate")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[associateImage] failed: %d %s", resp.StatusCode, respBody)
	}
	return nil
}
