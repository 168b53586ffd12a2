// Package profile looks up streamer display profiles from the external
// station API. The presentation layer calls it before joining a room; the
// coordinator never does.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

const (
	cacheSize     = 256
	cacheFresh    = 5 * time.Minute
	requestWait   = 10 * time.Second
	defaultAvatar = "https://res.afreecatv.com/images/afmobile/broad/profile_200_200.png"
)

// Profile is the normalized display profile for one handle.
type Profile struct {
	Handle     string    `json:"handle"`
	Nickname   string    `json:"nickname"`
	Avatar     string    `json:"avatar"`
	IsLive     bool      `json:"isLive"`
	StationURL string    `json:"stationUrl"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   *lru.Cache
	now     func() time.Time
}

type cacheEntry struct {
	profile *Profile
	at      time.Time
}

func NewClient(baseURL string) *Client {
	cache, _ := lru.New(cacheSize)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestWait},
		cache:   cache,
		now:     time.Now,
	}
}

// stationResponse mirrors the fields we need from the station API.
type stationResponse struct {
	UserNick     string `json:"user_nick"`
	ProfileImage string `json:"profile_image"`
	Station      struct {
		UserNick     string `json:"user_nick"`
		ProfileImage string `json:"profile_image"`
	} `json:"station"`
	Broad struct {
		BroadNo int `json:"broad_no"`
	} `json:"broad"`
}

// Load fetches a profile, serving cached entries while they are fresh.
func (c *Client) Load(ctx context.Context, handle string) (*Profile, error) {
	if cached, ok := c.cache.Get(handle); ok {
		entry := cached.(cacheEntry)
		if c.now().Sub(entry.at) < cacheFresh {
			return entry.profile, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/station", c.baseURL, handle), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("station API returned %d for %s", resp.StatusCode, handle)
	}

	var body stationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	nickname := body.UserNick
	if nickname == "" {
		nickname = body.Station.UserNick
	}
	if nickname == "" {
		nickname = handle
	}
	avatar := body.ProfileImage
	if avatar == "" {
		avatar = body.Station.ProfileImage
	}

	p := &Profile{
		Handle:     handle,
		Nickname:   nickname,
		Avatar:     normalizeImageURL(avatar),
		IsLive:     body.Broad.BroadNo != 0,
		StationURL: "https://bj.afreecatv.com/" + handle,
		FetchedAt:  c.now(),
	}
	c.cache.Add(handle, cacheEntry{profile: p, at: c.now()})
	log.Debug().Str("handle", handle).Bool("live", p.IsLive).Msg("profile loaded")
	return p, nil
}

// Validate reports whether a handle resolves to a real profile.
func (c *Client) Validate(ctx context.Context, handle string) (bool, *Profile) {
	p, err := c.Load(ctx, handle)
	if err != nil {
		log.Warn().Err(err).Str("handle", handle).Msg("profile validation failed")
		return false, nil
	}
	return true, p
}

func normalizeImageURL(imageURL string) string {
	switch {
	case imageURL == "":
		return defaultAvatar
	case strings.HasPrefix(imageURL, "//"):
		return "https:" + imageURL
	case strings.HasPrefix(imageURL, "http"):
		return imageURL
	default:
		return "https://profile.img.afreecatv.com/" + strings.TrimLeft(imageURL, "/")
	}
}
