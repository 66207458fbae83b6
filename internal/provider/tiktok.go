package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/pavelc4/aether-fetch/config"
	httpx "github.com/pavelc4/aether-fetch/pkg/http"
)

const tikTokAPIURL = "https://www.tikwm.com/api/"

type TikTok struct {
	client *http.Client

	Endpoint string
}

func NewTikTok(client *http.Client) *TikTok {
	return &TikTok{client: client, Endpoint: tikTokAPIURL}
}

func (tp *TikTok) Name() string {
	return "tikwm"
}

type tikWMResponse struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Data tikWMData `json:"data"`
}

type tikWMData struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Cover        string   `json:"cover"`
	Duration     int      `json:"duration"`
	Play         string   `json:"play"`
	WmPlay       string   `json:"wmplay"`
	HdPlay       string   `json:"hdplay"`
	Music        string   `json:"music"`
	Images       []string `json:"images"`
	PlayCount    int64    `json:"play_count"`
	DiggCount    int64    `json:"digg_count"`
	CommentCount int64    `json:"comment_count"`
	MusicInfo    struct {
		Title  string `json:"title"`
		Author string `json:"author"`
	} `json:"music_info"`
	Author struct {
		UniqueID string `json:"unique_id"`
		Nickname string `json:"nickname"`
	} `json:"author"`
}

func (tp *TikTok) Resolve(ctx context.Context, videoURL string) (*ResolvedSource, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("url", videoURL)
	form.Set("hd", "1")

	var resp tikWMResponse
	err := httpx.PostJSON(ctx, tp.client, tp.Endpoint, form.Encode(),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.Wrapf(ErrNotFound, "tikwm: %s", resp.Msg)
	}

	d := resp.Data
	res := &ResolvedSource{
		PageURL:   videoURL,
		Mode:      Stream,
		ID:        d.ID,
		Title:     d.Title,
		Author:    d.Author.Nickname,
		Thumbnail: tp.absolute(d.Cover),
		Music:     d.MusicInfo.Title,
		Duration:  time.Duration(d.Duration) * time.Second,
		Views:     d.PlayCount,
		Likes:     d.DiggCount,
		Comments:  d.CommentCount,
	}
	if res.Author == "" {
		res.Author = d.Author.UniqueID
	}

	// Best available: HD without watermark, then plain, then watermarked.
	switch {
	case d.HdPlay != "":
		res.DownloadURL, res.Quality = tp.absolute(d.HdPlay), "HD"
	case d.Play != "":
		res.DownloadURL, res.Quality = tp.absolute(d.Play), "No Watermark"
	case d.WmPlay != "":
		res.DownloadURL, res.Quality = tp.absolute(d.WmPlay), "Standard"
	}

	for _, img := range d.Images {
		res.Images = append(res.Images, tp.absolute(img))
	}
	if len(res.Images) > 0 {
		res.Quality = "Slideshow"
	}

	if res.DownloadURL == "" && len(res.Images) == 0 {
		return nil, errors.Wrap(ErrNotFound, "tikwm returned no media")
	}
	return res, nil
}

func (tp *TikTok) absolute(link string) string {
	if link == "" || strings.HasPrefix(link, "http") {
		return link
	}
	return Absolutize("https://www.tikwm.com", link)
}
