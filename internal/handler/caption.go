package handler

import (
	"fmt"
	"html"
	"strings"

	"github.com/pavelc4/aether-fetch/internal/provider"
	"github.com/pavelc4/aether-fetch/pkg/utils"
)

func displayTitle(title string, limit int) string {
	t := strings.TrimSpace(html.UnescapeString(title))
	if r := []rune(t); len(r) > limit {
		t = string(r[:limit-3]) + "..."
	}
	return t
}

func apkCaption(name string, res *provider.ResolvedSource, size int64) string {
	sizeText := res.Size
	if sizeText == "" || sizeText == "unknown" {
		sizeText = utils.FormatFileSize(size)
	}

	var b strings.Builder
	b.WriteString("📦 *APK DETAILS* 📦\n\n")
	fmt.Fprintf(&b, "🔖 *Name*: %s\n", displayTitle(name, 100))
	if res.Updated != "" {
		fmt.Fprintf(&b, "📅 *Last update*: %s\n", res.Updated)
	}
	if res.Package != "" {
		fmt.Fprintf(&b, "📦 *Package*: %s\n", res.Package)
	}
	fmt.Fprintf(&b, "📏 *Size*: %s\n", sizeText)
	fmt.Fprintf(&b, "🌐 *Source*: %s", res.Source)
	return b.String()
}

func tiktokCaption(res *provider.ResolvedSource, link string) string {
	title := displayTitle(res.Title, 200)
	if title == "" {
		title = "No caption"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎬 *Title:* %s\n", title)
	if res.Author != "" {
		fmt.Fprintf(&b, "👤 *Author:* %s\n", res.Author)
	}
	if res.Music != "" {
		fmt.Fprintf(&b, "🎵 *Music:* %s\n", res.Music)
	}
	fmt.Fprintf(&b, "❤️ *Likes:* %s\n", utils.FormatCount(res.Likes))
	fmt.Fprintf(&b, "💬 *Comments:* %s\n", utils.FormatCount(res.Comments))
	if res.Quality != "" {
		fmt.Fprintf(&b, "📺 *Quality:* %s\n", res.Quality)
	}
	fmt.Fprintf(&b, "🔗 *Link:* %s", link)
	return b.String()
}

func youtubeCard(res *provider.ResolvedSource) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎬 *Title:* %s\n", displayTitle(res.Title, 150))
	if res.Author != "" {
		fmt.Fprintf(&b, "👤 *Channel:* %s\n", res.Author)
	}
	if res.Duration > 0 {
		fmt.Fprintf(&b, "⏱️ *Duration:* %s\n", utils.FormatClock(res.Duration))
	}
	if res.Updated != "" {
		fmt.Fprintf(&b, "📅 *Uploaded:* %s\n", res.Updated)
	}
	if res.Views > 0 {
		fmt.Fprintf(&b, "👀 *Views:* %s\n", utils.FormatCount(res.Views))
	}
	fmt.Fprintf(&b, "🔗 *Watch Here:* %s", res.PageURL)
	return b.String()
}

func youtubeCaption(title, quality string, size int64) string {
	if quality == "audio" {
		return fmt.Sprintf("🎵 %s\n💾 *File Size:* %s MB", displayTitle(title, 150), utils.FormatMB(size))
	}
	return fmt.Sprintf("🎬 %s\n📺 *Quality:* %sp\n💾 *File Size:* %s MB", displayTitle(title, 150), quality, utils.FormatMB(size))
}
