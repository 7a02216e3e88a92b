package openai

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symposium-chat/symposium/model"
)

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingCredentials)
}

func TestStreamErrorChunkKeepsVendorMessage(t *testing.T) {
	ck := streamErrorChunk(errors.New("boom"))
	assert.Equal(t, model.ChunkTypeError, ck.Type)
	assert.Equal(t, "boom", ck.Error)
}

func TestBuildMessagesPlainText(t *testing.T) {
	messages, err := buildMessages(model.Request{
		Prompt:            "solve it",
		SystemInstruction: "be terse",
	})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	sys := messages[0].OfSystem
	require.NotNil(t, sys)
	assert.Equal(t, "be terse", sys.Content.OfString.Value)

	user := messages[1].OfUser
	require.NotNil(t, user)
	assert.Equal(t, "solve it", user.Content.OfString.Value)
}

func TestBuildMessagesWithAttachments(t *testing.T) {
	messages, err := buildMessages(model.Request{
		Prompt: "describe this",
		Attachments: []model.Attachment{
			{Kind: model.AttachmentText, Text: "context blob"},
			{Kind: model.AttachmentImage, Name: "pic.png", MimeType: "image/png", Data: "aGVsbG8="},
		},
	})
	require.NoError(t, err)
	require.Len(t, messages, 1)

	raw, merr := json.Marshal(messages[0])
	require.NoError(t, merr)
	body := string(raw)

	// Attachments precede the prompt; the image rides as a base64 data URL.
	assert.Contains(t, body, "context blob")
	assert.Contains(t, body, "data:image/png;base64,aGVsbG8=")
	assert.Contains(t, body, `"image_url"`)
	assert.Contains(t, body, "describe this")
	assert.Less(t,
		strings.Index(body, "context blob"),
		strings.Index(body, "describe this"))
}

func TestBuildMessagesRejectsDocuments(t *testing.T) {
	_, err := buildMessages(model.Request{
		Prompt: "read this",
		Attachments: []model.Attachment{
			{Kind: model.AttachmentDocument, Name: "paper.pdf", MimeType: "application/pdf", Data: "aGVsbG8="},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paper.pdf")
}
