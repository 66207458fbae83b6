package whatsapp

import (
	"path/filepath"
	"strings"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"google.golang.org/protobuf/proto"

	"github.com/pavelc4/aether-fetch/internal/chat"
)

// MessageText returns the text a user typed, whichever message type
// carries it.
func MessageText(msg *waProto.Message) string {
	if msg == nil {
		return ""
	}
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation()
	case msg.GetExtendedTextMessage() != nil:
		return msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}

func mediaType(kind chat.Kind) whatsmeow.MediaType {
	switch kind {
	case chat.Video:
		return whatsmeow.MediaVideo
	case chat.Audio:
		return whatsmeow.MediaAudio
	case chat.Image:
		return whatsmeow.MediaImage
	default:
		return whatsmeow.MediaDocument
	}
}

func textMessage(text string, quote *waProto.ContextInfo) *waProto.Message {
	if quote == nil {
		return &waProto.Message{Conversation: proto.String(text)}
	}
	return &waProto.Message{ExtendedTextMessage: &waProto.ExtendedTextMessage{
		Text:        proto.String(text),
		ContextInfo: quote,
	}}
}

// mediaMessage wraps an uploaded blob in the message type for a.Kind.
func mediaMessage(up whatsmeow.UploadResponse, a *chat.Attachment, quote *waProto.ContextInfo) *waProto.Message {
	caption := optional(a.Caption)
	mime := proto.String(a.Mime())

	switch a.Kind {
	case chat.Video:
		return &waProto.Message{VideoMessage: &waProto.VideoMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      mime,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       caption,
			ContextInfo:   quote,
		}}
	case chat.Audio:
		return &waProto.Message{AudioMessage: &waProto.AudioMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      mime,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			ContextInfo:   quote,
		}}
	case chat.Image:
		return &waProto.Message{ImageMessage: &waProto.ImageMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      mime,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			Caption:       caption,
			ContextInfo:   quote,
		}}
	default:
		name := a.Name()
		return &waProto.Message{DocumentMessage: &waProto.DocumentMessage{
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			Mimetype:      mime,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
			FileName:      proto.String(name),
			Title:         proto.String(strings.TrimSuffix(name, filepath.Ext(name))),
			Caption:       caption,
			ContextInfo:   quote,
		}}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return proto.String(s)
}
