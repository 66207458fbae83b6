package telegram

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"

	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/pkg/logger"
)

// Transport implements chat.Transport on top of the MTProto API.
type Transport struct {
	api   *tg.Client
	up    *uploader.Uploader
	peers *peerCache
}

func NewTransport(api *tg.Client) *Transport {
	return &Transport{
		api:   api,
		up:    uploader.NewUploader(api).WithThreads(4),
		peers: newPeerCache(),
	}
}

// Remember stores the input peer for key. Updates call it before dispatch.
func (t *Transport) Remember(key string, peer tg.InputPeerClass) {
	t.peers.Put(key, peer)
}

func (t *Transport) SendText(ctx context.Context, chatID, replyTo, text string) error {
	peer, err := t.peers.Get(chatID)
	if err != nil {
		return err
	}

	msg, entities := ParseMarkup(text)
	_, err = t.api.MessagesSendMessage(ctx, &tg.MessagesSendMessageRequest{
		Peer:      peer,
		ReplyTo:   replyHeader(replyTo),
		Message:   msg,
		Entities:  entities,
		NoWebpage: true,
		RandomID:  time.Now().UnixNano(),
	})
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	return nil
}

func (t *Transport) SendAttachment(ctx context.Context, chatID, replyTo string, a *chat.Attachment) error {
	peer, err := t.peers.Get(chatID)
	if err != nil {
		return err
	}

	media, err := t.media(ctx, a)
	if err != nil {
		return err
	}

	caption, entities := ParseMarkup(a.Caption)
	start := time.Now()
	_, err = t.api.MessagesSendMedia(ctx, &tg.MessagesSendMediaRequest{
		Peer:     peer,
		ReplyTo:  replyHeader(replyTo),
		Media:    media,
		Message:  caption,
		Entities: entities,
		RandomID: time.Now().UnixNano(),
	})
	if err != nil {
		return errors.Wrapf(err, "send %s", a.Kind)
	}
	logger.InfoWithDuration("Media sent", start, "chat", chatID, "kind", a.Kind.String(), "name", a.Name())
	return nil
}

func (t *Transport) React(ctx context.Context, chatID, messageID, _ string, emoji string) error {
	peer, err := t.peers.Get(chatID)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return errors.Wrapf(err, "message id %q", messageID)
	}

	_, err = t.api.MessagesSendReaction(ctx, &tg.MessagesSendReactionRequest{
		Peer:     peer,
		MsgID:    id,
		Reaction: []tg.ReactionClass{&tg.ReactionEmoji{Emoticon: emoji}},
	})
	if err != nil {
		return errors.Wrap(err, "send reaction")
	}
	return nil
}

// media turns an attachment into input media. URLs are fetched by
// Telegram itself; bytes and files are uploaded first.
func (t *Transport) media(ctx context.Context, a *chat.Attachment) (tg.InputMediaClass, error) {
	if a.URL != "" {
		if a.Kind == chat.Image {
			return &tg.InputMediaPhotoExternal{URL: a.URL}, nil
		}
		return &tg.InputMediaDocumentExternal{URL: a.URL}, nil
	}

	var (
		file tg.InputFileClass
		err  error
	)
	switch {
	case len(a.Data) > 0:
		file, err = t.up.FromBytes(ctx, a.Name(), a.Data)
	case a.Path != "":
		file, err = t.up.FromPath(ctx, a.Path)
	default:
		return nil, errors.New("attachment has no content")
	}
	if err != nil {
		return nil, errors.Wrap(err, "upload")
	}

	return uploadedMedia(file, a), nil
}

func uploadedMedia(file tg.InputFileClass, a *chat.Attachment) tg.InputMediaClass {
	if a.Kind == chat.Image {
		return &tg.InputMediaUploadedPhoto{File: file}
	}

	attrs := []tg.DocumentAttributeClass{
		&tg.DocumentAttributeFilename{FileName: a.Name()},
	}
	switch a.Kind {
	case chat.Video:
		attrs = append(attrs, &tg.DocumentAttributeVideo{SupportsStreaming: true})
	case chat.Audio:
		attrs = append(attrs, &tg.DocumentAttributeAudio{Title: a.Name()})
	}

	return &tg.InputMediaUploadedDocument{
		File:       file,
		MimeType:   a.Mime(),
		Attributes: attrs,
		ForceFile:  a.Kind == chat.Document,
	}
}

func replyHeader(replyTo string) tg.InputReplyToClass {
	id, err := strconv.Atoi(replyTo)
	if err != nil || id == 0 {
		return nil
	}
	return &tg.InputReplyToMessage{ReplyToMsgID: id}
}
