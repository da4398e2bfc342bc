package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL        = "https://www.youtube.com"
	innertubeClientName   = "ANDROID"
	innertubeClientVer    = "20.10.38"
	browserUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultRequestTimeout = 20 * time.Second
)

var (
	// ErrTooManyRequests is returned when YouTube answers with a captcha page.
	ErrTooManyRequests = errors.New("youtube is rate limiting this client")
	// ErrTranscriptsDisabled is returned when the video has no caption tracks.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")

	apiKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY":"([^"]+)"`)
)

type Client struct {
	baseURL    string
	lang       string
	httpClient *resty.Client
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// NewClient builds a transcript client. An empty baseURL targets youtube.com;
// lang selects a caption track by language code and falls back to the first.
func NewClient(baseURL, lang string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", browserUserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetTimeout(defaultRequestTimeout)
	return &Client{
		baseURL:    baseURL,
		lang:       lang,
		httpClient: client,
	}
}

// FetchTranscript returns the caption text of videoID joined with spaces.
func (c *Client) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	apiKey, err := c.apiKey(ctx, videoID)
	if err != nil {
		return "", err
	}
	track, err := c.captionTrack(ctx, apiKey, videoID)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetch caption track: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("caption track error (%d)", resp.StatusCode())
	}
	return parseCaptions(strings.NewReader(resp.String()))
}

func (c *Client) apiKey(ctx context.Context, videoID string) (string, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get("/watch")
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}
	page := resp.String()
	if strings.Contains(page, `class="g-recaptcha"`) {
		return "", ErrTooManyRequests
	}
	if resp.IsError() {
		return "", fmt.Errorf("watch page error (%d)", resp.StatusCode())
	}
	m := apiKeyPattern.FindStringSubmatch(page)
	if m == nil {
		return "", fmt.Errorf("video %s: innertube api key not found", videoID)
	}
	return m[1], nil
}

func (c *Client) captionTrack(ctx context.Context, apiKey, videoID string) (captionTrack, error) {
	var body playerRequest
	body.Context.Client.ClientName = innertubeClientName
	body.Context.Client.ClientVersion = innertubeClientVer
	body.VideoID = videoID

	var player playerResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&player).
		Post("/youtubei/v1/player")
	if err != nil {
		return captionTrack{}, fmt.Errorf("fetch player: %w", err)
	}
	if resp.IsError() {
		return captionTrack{}, fmt.Errorf("player error (%d): %s", resp.StatusCode(), resp.String())
	}
	if status := player.PlayabilityStatus.Status; status != "" && status != "OK" {
		return captionTrack{}, fmt.Errorf("video %s unplayable: %s", videoID, player.PlayabilityStatus.Reason)
	}

	tracks := player.Captions.Renderer.CaptionTracks
	if len(tracks) == 0 {
		return captionTrack{}, ErrTranscriptsDisabled
	}
	if c.lang != "" {
		for _, t := range tracks {
			if strings.EqualFold(t.LanguageCode, c.lang) {
				return t, nil
			}
		}
	}
	return tracks[0], nil
}

// parseCaptions extracts the text of every <text> (timedtext) or <p> (srv3)
// element. Caption text is frequently entity-encoded twice.
func parseCaptions(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var (
		segments []string
		current  strings.Builder
		depth    int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse captions: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "text" || t.Name.Local == "p" {
				depth++
			}
		case xml.EndElement:
			if (t.Name.Local == "text" || t.Name.Local == "p") && depth > 0 {
				depth--
				if depth == 0 {
					if seg := strings.Join(strings.Fields(html.UnescapeString(current.String())), " "); seg != "" {
						segments = append(segments, seg)
					}
					current.Reset()
				}
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(t)
			}
		}
	}
	if len(segments) == 0 {
		return "", ErrTranscriptsDisabled
	}
	return strings.Join(segments, " "), nil
}
