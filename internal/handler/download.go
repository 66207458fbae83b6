package handler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/internal/chat"
	"github.com/pavelc4/aether-fetch/internal/command"
	"github.com/pavelc4/aether-fetch/internal/fetch"
	"github.com/pavelc4/aether-fetch/internal/provider"
	"github.com/pavelc4/aether-fetch/pkg/logger"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

type DownloadHandler struct {
	d Deps
}

func NewDownloadHandler(d Deps) *DownloadHandler {
	return &DownloadHandler{d: d}
}

func (h *DownloadHandler) HandleAPK(ctx context.Context, inv *command.Invocation) (err error) {
	query := inv.Query
	if query == "" {
		return command.Usagef("Please provide an app name. Example: `%sapk whatsapp`", inv.Prefix)
	}

	var (
		source string
		size   int64
	)
	defer func() { err = finish(ctx, inv, h.d.Stats, source, size, err) }()

	if !provider.IsDirectURL(query, ".apk") {
		notify(ctx, inv, fmt.Sprintf("🔎 Searching for *%s*...", query))
	}

	res, err := h.d.APK.Resolve(ctx, query)
	if err != nil {
		return err
	}
	source = res.Source

	name, fileName := apkNames(query, res)
	h.announce(ctx, inv, res.Thumbnail, fmt.Sprintf("📦 Downloading %s... Please wait.", name))

	var a *fetch.Artifact
	if res.Mode == provider.Buffer {
		a, err = h.d.Fetcher.ToMemory(ctx, res.DownloadURL)
	} else {
		path := filepath.Join(h.d.DownloadDir, utils.UniqueName("apk")+"_"+fileName)
		a, err = h.d.Fetcher.ToFile(ctx, res.DownloadURL, path)
		if a != nil {
			a.Temp = true
		}
	}
	if err != nil {
		return errors.Wrapf(err, "download from %s", res.Source)
	}
	a.FileName = fileName
	a.MimeType = "application/vnd.android.package-archive"
	size = a.Size

	return h.d.Relay.Deliver(ctx, inv, a, chat.Document, apkCaption(name, res, a.Size))
}

// apkNames picks the display name and the attachment file name. A search
// for "Whats App" is sent as Whats_App.apk.
func apkNames(query string, res *provider.ResolvedSource) (name, fileName string) {
	switch {
	case res.Source == provider.SourceDirect:
		base := res.Title
		if base == "" {
			base = "app.apk"
		}
		name = strings.TrimSuffix(base, filepath.Ext(base))
		return name, utils.SanitizeFileName(name) + ".apk"
	case res.Mode == provider.Buffer && res.Title != "":
		return res.Title, utils.SanitizeFileName(res.Title) + ".apk"
	default:
		return query, utils.SanitizeFileName(utils.Underscored(query)) + ".apk"
	}
}

// announce shows a thumbnail card when one is known, plain text otherwise.
func (h *DownloadHandler) announce(ctx context.Context, inv *command.Invocation, thumbnail, text string) {
	if thumbnail != "" {
		err := h.d.Relay.SendURL(ctx, inv, thumbnail, chat.Image, "", text)
		if err == nil {
			return
		}
		logger.Debug("Thumbnail send failed", "url", thumbnail, "error", err)
	}
	notify(ctx, inv, text)
}

func (h *DownloadHandler) HandleTikTok(ctx context.Context, inv *command.Invocation) (err error) {
	link := provider.ExtractURL(inv.Query)
	if link == "" || !provider.IsTikTokURL(link) {
		return command.Usagef("❌ *Please provide a TikTok video link!*")
	}

	var (
		source string
		size   int64
	)
	defer func() { err = finish(ctx, inv, h.d.Stats, source, size, err) }()

	notify(ctx, inv, "⏳ *Fetching TikTok video...*")

	if provider.IsTikTokShortLink(link) {
		link = provider.ExpandShortLink(ctx, h.d.Client, link)
	}

	res, err := h.d.TikTok.Resolve(ctx, link)
	if err != nil {
		return err
	}
	source = res.Source
	caption := tiktokCaption(res, link)

	if res.DownloadURL == "" {
		size, err = h.sendSlideshow(ctx, inv, res.Images, caption)
		if err != nil {
			return err
		}
		notify(ctx, inv, fmt.Sprintf("✅ *Here are your %d TikTok pictures* 🎉", min(len(res.Images), MaxAlbumSize)))
		return nil
	}

	fileName := "tiktok_" + orID(res.ID) + ".mp4"
	if err = h.d.Relay.SendURL(ctx, inv, res.DownloadURL, chat.Video, fileName, caption); err != nil {
		logger.Warn("Send by reference failed, downloading first", "url", res.DownloadURL, "error", err)

		path := filepath.Join(h.d.DownloadDir, utils.UniqueName("tiktok")+".mp4")
		a, ferr := h.d.Fetcher.ToFile(ctx, res.DownloadURL, path)
		if ferr != nil {
			return ferr
		}
		a.Temp = true
		a.FileName = fileName
		a.MimeType = "video/mp4"
		size = a.Size
		if err = h.d.Relay.Deliver(ctx, inv, a, chat.Video, caption); err != nil {
			return err
		}
	}

	notify(ctx, inv, fmt.Sprintf("✅ *Here is your TikTok video (%s)* 🎉", res.Quality))
	return nil
}

func (h *DownloadHandler) sendSlideshow(ctx context.Context, inv *command.Invocation, images []string, caption string) (int64, error) {
	if len(images) > MaxAlbumSize {
		images = images[:MaxAlbumSize]
	}

	arts, err := h.d.Fetcher.ManyToMemory(ctx, images, 4)
	if err != nil {
		return 0, err
	}

	var total int64
	for i, a := range arts {
		a.FileName = fmt.Sprintf("slide_%02d.jpg", i+1)
		c := ""
		if i == 0 {
			c = caption
		}
		if err := h.d.Relay.Deliver(ctx, inv, a, chat.Image, c); err != nil {
			return total, err
		}
		total += a.Size
	}
	return total, nil
}

func orID(id string) string {
	if id == "" {
		return utils.UniqueName("")
	}
	return id
}

func (h *DownloadHandler) HandleYouTube(ctx context.Context, inv *command.Invocation) (err error) {
	link := inv.Arg(0)
	if link == "" {
		return command.Usagef("❌ *Please provide a YouTube video URL.*\nExample: %s%s https://youtu.be/XYZ 720", inv.Prefix, inv.Name)
	}
	if !provider.IsYouTubeURL(link) {
		return command.Usagef("❌ *Invalid YouTube URL.*")
	}
	quality := fetch.ParseQuality(inv.Arg(1))

	var size int64
	defer func() { err = finish(ctx, inv, h.d.Stats, h.d.YouTube.Name(), size, err) }()

	notify(ctx, inv, "⏳ *Preparing download...*")

	var res *provider.ResolvedSource
	err = fetch.Retry(ctx, fetch.DefaultPolicy(), "youtube info", func() error {
		var ierr error
		res, ierr = h.d.YouTube.Info(ctx, link)
		return ierr
	})
	if err != nil {
		return err
	}
	if h.tooLong(res) {
		notify(ctx, inv, h.tooLongText())
		return nil
	}

	a, err := h.d.YtDLP.Download(ctx, res.PageURL, res.Title, quality)
	if err != nil {
		return err
	}
	size = a.Size

	kind := chat.Video
	if quality == fetch.QualityAudio {
		kind = chat.Document
	}
	if err = h.d.Relay.Deliver(ctx, inv, a, kind, youtubeCaption(res.Title, quality, a.Size)); err != nil {
		return err
	}

	what := "Video"
	if quality == fetch.QualityAudio {
		what = "Audio (MP3)"
	}
	notify(ctx, inv, fmt.Sprintf("✅ *%s sent!* (💾 %s MB)", what, utils.FormatMB(a.Size)))
	return nil
}

// HandleSearch serves .video and .song: look the query up, show a card,
// then send the first hit as a 360p video or as audio.
func (h *DownloadHandler) HandleSearch(ctx context.Context, inv *command.Invocation) (err error) {
	if inv.Query == "" {
		return command.Usagef("❌ *Please provide a video name or YouTube link*")
	}
	quality := "360"
	kind := chat.Video
	if inv.Name == "song" {
		quality, kind = fetch.QualityAudio, chat.Audio
	}

	var size int64
	defer func() { err = finish(ctx, inv, h.d.Stats, h.d.YouTube.Name(), size, err) }()

	res, err := h.d.YouTube.Resolve(ctx, inv.Query)
	if err != nil {
		return err
	}
	h.announce(ctx, inv, res.Thumbnail, youtubeCard(res))

	if h.tooLong(res) {
		notify(ctx, inv, h.tooLongText())
		return nil
	}

	a, err := h.d.YtDLP.Download(ctx, res.PageURL, res.Title, quality)
	if err != nil {
		return err
	}
	size = a.Size

	caption := "🎶 *Your video is ready to be played!*"
	if kind == chat.Audio {
		caption = ""
	}
	if err = h.d.Relay.Deliver(ctx, inv, a, kind, caption); err != nil {
		return err
	}
	notify(ctx, inv, "✅ Thank you")
	return nil
}

func (h *DownloadHandler) tooLong(res *provider.ResolvedSource) bool {
	return h.d.MaxVideoDuration > 0 && res.Duration > h.d.MaxVideoDuration
}

func (h *DownloadHandler) tooLongText() string {
	return fmt.Sprintf("⏳ *Sorry, videos longer than %s are not supported.*", utils.FormatClock(h.d.MaxVideoDuration))
}
