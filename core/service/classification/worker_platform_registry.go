// Package classification maps sender domains to known signup platforms.
package classification

import (
	"fmt"
	"strings"

	"github.com/Vansh1811/INBoxit-sub000/core/domain"
)

// =============================================================================
// Platform Registry
// =============================================================================

// Platform is one registry entry.
type Platform struct {
	Name       string
	Domains    []string // exact domain keys
	Aliases    []string // substrings matched against the domain
	Keywords   []string // substrings matched against from+subject+snippet
	Category   domain.Category
	Confidence int // base confidence for direct and alias matches
}

// Registry is an ordered, read-only list of platforms.
// Declaration order breaks ties in alias and keyword matching.
type Registry struct {
	platforms []Platform
	byDomain  map[string]int
}

// NewRegistry validates and indexes platforms, keeping their order.
func NewRegistry(platforms []Platform) (*Registry, error) {
	r := &Registry{
		platforms: make([]Platform, 0, len(platforms)),
		byDomain:  make(map[string]int),
	}

	for i, p := range platforms {
		if p.Name == "" {
			return nil, fmt.Errorf("platform %d: empty name", i)
		}
		if p.Confidence <= 0 || p.Confidence > 100 {
			return nil, fmt.Errorf("platform %q: confidence %d out of range", p.Name, p.Confidence)
		}
		if !p.Category.IsValid() {
			return nil, fmt.Errorf("platform %q: unknown category %q", p.Name, p.Category)
		}

		p.Domains = lowerAll(p.Domains)
		p.Aliases = lowerAll(p.Aliases)
		p.Keywords = dedupe(lowerAll(p.Keywords))

		idx := len(r.platforms)
		for _, d := range p.Domains {
			if prev, ok := r.byDomain[d]; ok {
				return nil, fmt.Errorf("domain %q registered by both %q and %q", d, r.platforms[prev].Name, p.Name)
			}
			r.byDomain[d] = idx
		}
		r.platforms = append(r.platforms, p)
	}

	return r, nil
}

// MustRegistry is NewRegistry for static tables.
func MustRegistry(platforms []Platform) *Registry {
	r, err := NewRegistry(platforms)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds the platform registered under an exact, lowercased domain.
func (r *Registry) Lookup(d string) (*Platform, bool) {
	idx, ok := r.byDomain[d]
	if !ok {
		return nil, false
	}
	return &r.platforms[idx], true
}

// Len returns the number of platforms.
func (r *Registry) Len() int {
	return len(r.platforms)
}

func (r *Registry) at(i int) *Platform {
	return &r.platforms[i]
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// Default Registry
// =============================================================================

var defaultRegistry = MustRegistry(defaultPlatforms)

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

var defaultPlatforms = []Platform{
	// Entertainment
	{Name: "Netflix", Domains: []string{"netflix.com"}, Aliases: []string{"netflix"},
		Keywords: []string{"netflix", "streaming", "episode", "series", "watch"}, Category: domain.CategoryEntertainment, Confidence: 95},
	{Name: "Spotify", Domains: []string{"spotify.com"}, Aliases: []string{"spotify"},
		Keywords: []string{"spotify", "playlist", "podcast", "premium", "music"}, Category: domain.CategoryEntertainment, Confidence: 95},
	{Name: "YouTube", Domains: []string{"youtube.com"}, Aliases: []string{"youtube"},
		Keywords: []string{"youtube", "video", "channel", "subscribers"}, Category: domain.CategoryEntertainment, Confidence: 90},
	{Name: "Disney+", Domains: []string{"disneyplus.com"}, Aliases: []string{"disneyplus", "disney"},
		Keywords: []string{"disney", "marvel", "pixar", "streaming"}, Category: domain.CategoryEntertainment, Confidence: 90},
	{Name: "Hulu", Domains: []string{"hulu.com"}, Aliases: []string{"hulu"},
		Keywords: []string{"hulu", "streaming", "episode", "live tv"}, Category: domain.CategoryEntertainment, Confidence: 90},
	{Name: "Twitch", Domains: []string{"twitch.tv"}, Aliases: []string{"twitch"},
		Keywords: []string{"twitch", "streamer", "went live", "emote"}, Category: domain.CategoryEntertainment, Confidence: 88},

	// Shopping
	{Name: "Amazon", Domains: []string{"amazon.com"}, Aliases: []string{"amazon"},
		Keywords: []string{"amazon", "order", "shipped", "delivery", "prime"}, Category: domain.CategoryShopping, Confidence: 95},
	{Name: "eBay", Domains: []string{"ebay.com"}, Aliases: []string{"ebay"},
		Keywords: []string{"ebay", "auction", "bid", "seller"}, Category: domain.CategoryShopping, Confidence: 92},
	{Name: "Etsy", Domains: []string{"etsy.com"}, Aliases: []string{"etsy"},
		Keywords: []string{"etsy", "handmade", "shop", "seller"}, Category: domain.CategoryShopping, Confidence: 90},
	{Name: "Shopify", Domains: []string{"shopify.com"}, Aliases: []string{"shopify"},
		Keywords: []string{"shopify", "storefront", "merchant", "checkout"}, Category: domain.CategoryShopping, Confidence: 88},
	{Name: "AliExpress", Domains: []string{"aliexpress.com"}, Aliases: []string{"aliexpress"},
		Keywords: []string{"aliexpress", "order", "shipping", "dispute"}, Category: domain.CategoryShopping, Confidence: 88},

	// Social
	{Name: "Facebook", Domains: []string{"facebook.com", "facebookmail.com"}, Aliases: []string{"facebook"},
		Keywords: []string{"facebook", "friend request", "tagged you", "comment"}, Category: domain.CategorySocial, Confidence: 95},
	{Name: "Instagram", Domains: []string{"instagram.com"}, Aliases: []string{"instagram"},
		Keywords: []string{"instagram", "follower", "story", "reel"}, Category: domain.CategorySocial, Confidence: 95},
	{Name: "Twitter", Domains: []string{"twitter.com", "x.com"}, Aliases: []string{"twitter"},
		Keywords: []string{"twitter", "tweet", "retweet", "follower"}, Category: domain.CategorySocial, Confidence: 92},
	{Name: "LinkedIn", Domains: []string{"linkedin.com"}, Aliases: []string{"linkedin"},
		Keywords: []string{"linkedin", "connection", "network", "endorse"}, Category: domain.CategorySocial, Confidence: 95},
	{Name: "Reddit", Domains: []string{"reddit.com", "redditmail.com"}, Aliases: []string{"reddit"},
		Keywords: []string{"reddit", "subreddit", "upvote", "karma"}, Category: domain.CategorySocial, Confidence: 90},
	{Name: "Pinterest", Domains: []string{"pinterest.com"}, Aliases: []string{"pinterest"},
		Keywords: []string{"pinterest", "pinned", "board", "ideas"}, Category: domain.CategorySocial, Confidence: 90},
	{Name: "TikTok", Domains: []string{"tiktok.com"}, Aliases: []string{"tiktok"},
		Keywords: []string{"tiktok", "creator", "for you", "duet"}, Category: domain.CategorySocial, Confidence: 90},

	// Productivity
	{Name: "Notion", Domains: []string{"notion.so", "makenotion.com"}, Aliases: []string{"notion"},
		Keywords: []string{"notion", "workspace", "template", "wiki"}, Category: domain.CategoryProductivity, Confidence: 90},
	{Name: "Trello", Domains: []string{"trello.com"}, Aliases: []string{"trello"},
		Keywords: []string{"trello", "board", "card", "checklist"}, Category: domain.CategoryProductivity, Confidence: 88},
	{Name: "Asana", Domains: []string{"asana.com"}, Aliases: []string{"asana"},
		Keywords: []string{"asana", "task", "project", "assigned"}, Category: domain.CategoryProductivity, Confidence: 88},
	{Name: "Dropbox", Domains: []string{"dropbox.com", "dropboxmail.com"}, Aliases: []string{"dropbox"},
		Keywords: []string{"dropbox", "shared folder", "file", "storage"}, Category: domain.CategoryProductivity, Confidence: 90},
	{Name: "Canva", Domains: []string{"canva.com"}, Aliases: []string{"canva"},
		Keywords: []string{"canva", "design", "template", "brand kit"}, Category: domain.CategoryProductivity, Confidence: 88},
	{Name: "Google", Domains: []string{"google.com", "accounts.google.com"}, Aliases: []string{"google"},
		Keywords: []string{"google", "security alert", "account", "drive"}, Category: domain.CategoryProductivity, Confidence: 90},
	{Name: "Microsoft", Domains: []string{"microsoft.com", "accountprotection.microsoft.com"}, Aliases: []string{"microsoft"},
		Keywords: []string{"microsoft", "office", "outlook", "onedrive"}, Category: domain.CategoryProductivity, Confidence: 90},

	// Finance
	{Name: "PayPal", Domains: []string{"paypal.com"}, Aliases: []string{"paypal"},
		Keywords: []string{"paypal", "payment", "receipt", "transaction"}, Category: domain.CategoryFinance, Confidence: 95},
	{Name: "Stripe", Domains: []string{"stripe.com"}, Aliases: []string{"stripe"},
		Keywords: []string{"stripe", "payout", "invoice", "payment"}, Category: domain.CategoryFinance, Confidence: 92},
	{Name: "Venmo", Domains: []string{"venmo.com"}, Aliases: []string{"venmo"},
		Keywords: []string{"venmo", "paid you", "request", "payment"}, Category: domain.CategoryFinance, Confidence: 90},
	{Name: "Coinbase", Domains: []string{"coinbase.com"}, Aliases: []string{"coinbase"},
		Keywords: []string{"coinbase", "crypto", "bitcoin", "wallet"}, Category: domain.CategoryFinance, Confidence: 90},
	{Name: "Robinhood", Domains: []string{"robinhood.com"}, Aliases: []string{"robinhood"},
		Keywords: []string{"robinhood", "stock", "trade", "portfolio"}, Category: domain.CategoryFinance, Confidence: 90},

	// Education
	{Name: "Coursera", Domains: []string{"coursera.org"}, Aliases: []string{"coursera"},
		Keywords: []string{"coursera", "course", "enroll", "certificate"}, Category: domain.CategoryEducation, Confidence: 90},
	{Name: "Udemy", Domains: []string{"udemy.com"}, Aliases: []string{"udemy"},
		Keywords: []string{"udemy", "course", "instructor", "lecture"}, Category: domain.CategoryEducation, Confidence: 90},
	{Name: "Duolingo", Domains: []string{"duolingo.com"}, Aliases: []string{"duolingo"},
		Keywords: []string{"duolingo", "lesson", "streak", "language"}, Category: domain.CategoryEducation, Confidence: 90},
	{Name: "Khan Academy", Domains: []string{"khanacademy.org"}, Aliases: []string{"khanacademy"},
		Keywords: []string{"khan academy", "lesson", "practice", "mastery"}, Category: domain.CategoryEducation, Confidence: 88},

	// Food. Uber Eats precedes Uber so the longer alias wins.
	{Name: "Uber Eats", Domains: []string{"ubereats.com"}, Aliases: []string{"ubereats"},
		Keywords: []string{"uber eats", "restaurant", "order", "delivery"}, Category: domain.CategoryFood, Confidence: 92},
	{Name: "DoorDash", Domains: []string{"doordash.com"}, Aliases: []string{"doordash"},
		Keywords: []string{"doordash", "dasher", "order", "delivery"}, Category: domain.CategoryFood, Confidence: 92},
	{Name: "Grubhub", Domains: []string{"grubhub.com"}, Aliases: []string{"grubhub"},
		Keywords: []string{"grubhub", "restaurant", "order", "delivery"}, Category: domain.CategoryFood, Confidence: 90},

	// Travel
	{Name: "Airbnb", Domains: []string{"airbnb.com"}, Aliases: []string{"airbnb"},
		Keywords: []string{"airbnb", "reservation", "host", "stay", "check-in"}, Category: domain.CategoryTravel, Confidence: 95},
	{Name: "Booking.com", Domains: []string{"booking.com"}, Aliases: []string{"booking.com"},
		Keywords: []string{"booking.com", "reservation", "hotel", "stay"}, Category: domain.CategoryTravel, Confidence: 92},
	{Name: "Uber", Domains: []string{"uber.com"}, Aliases: []string{"uber"},
		Keywords: []string{"uber", "trip", "ride", "driver"}, Category: domain.CategoryTravel, Confidence: 92},
	{Name: "Lyft", Domains: []string{"lyft.com"}, Aliases: []string{"lyft"},
		Keywords: []string{"lyft", "ride", "driver", "trip"}, Category: domain.CategoryTravel, Confidence: 90},
	{Name: "Expedia", Domains: []string{"expedia.com"}, Aliases: []string{"expedia"},
		Keywords: []string{"expedia", "flight", "hotel", "itinerary"}, Category: domain.CategoryTravel, Confidence: 90},

	// News
	{Name: "Medium", Domains: []string{"medium.com"}, Aliases: []string{"medium.com"},
		Keywords: []string{"medium", "daily digest", "story", "writer"}, Category: domain.CategoryNews, Confidence: 88},
	{Name: "Substack", Domains: []string{"substack.com"}, Aliases: []string{"substack"},
		Keywords: []string{"substack", "newsletter", "subscribe", "new post"}, Category: domain.CategoryNews, Confidence: 88},
	{Name: "The New York Times", Domains: []string{"nytimes.com"}, Aliases: []string{"nytimes"},
		Keywords: []string{"new york times", "nytimes", "headlines", "subscription"}, Category: domain.CategoryNews, Confidence: 90},

	// Health
	{Name: "Headspace", Domains: []string{"headspace.com"}, Aliases: []string{"headspace"},
		Keywords: []string{"headspace", "meditation", "mindfulness", "sleep"}, Category: domain.CategoryHealth, Confidence: 88},
	{Name: "MyFitnessPal", Domains: []string{"myfitnesspal.com"}, Aliases: []string{"myfitnesspal"},
		Keywords: []string{"myfitnesspal", "calories", "workout", "fitness"}, Category: domain.CategoryHealth, Confidence: 88},
	{Name: "Strava", Domains: []string{"strava.com"}, Aliases: []string{"strava"},
		Keywords: []string{"strava", "kudos", "activity", "segment"}, Category: domain.CategoryHealth, Confidence: 88},

	// Developer
	{Name: "GitHub", Domains: []string{"github.com"}, Aliases: []string{"github"},
		Keywords: []string{"github", "repository", "pull request", "commit"}, Category: domain.CategoryDeveloper, Confidence: 95},
	{Name: "GitLab", Domains: []string{"gitlab.com"}, Aliases: []string{"gitlab"},
		Keywords: []string{"gitlab", "merge request", "pipeline", "runner"}, Category: domain.CategoryDeveloper, Confidence: 92},
	{Name: "Vercel", Domains: []string{"vercel.com"}, Aliases: []string{"vercel"},
		Keywords: []string{"vercel", "deployment", "preview", "domain"}, Category: domain.CategoryDeveloper, Confidence: 90},
	{Name: "Heroku", Domains: []string{"heroku.com"}, Aliases: []string{"heroku"},
		Keywords: []string{"heroku", "dyno", "buildpack", "add-on"}, Category: domain.CategoryDeveloper, Confidence: 88},
	{Name: "Atlassian", Domains: []string{"atlassian.com", "atlassian.net"}, Aliases: []string{"atlassian", "jira"},
		Keywords: []string{"jira", "confluence", "issue", "sprint"}, Category: domain.CategoryDeveloper, Confidence: 90},
	{Name: "DigitalOcean", Domains: []string{"digitalocean.com"}, Aliases: []string{"digitalocean"},
		Keywords: []string{"digitalocean", "droplet", "kubernetes", "billing"}, Category: domain.CategoryDeveloper, Confidence: 88},

	// Communication
	{Name: "Slack", Domains: []string{"slack.com"}, Aliases: []string{"slack"},
		Keywords: []string{"slack", "workspace", "channel", "direct message"}, Category: domain.CategoryCommunication, Confidence: 92},
	{Name: "Discord", Domains: []string{"discord.com", "discordapp.com"}, Aliases: []string{"discord"},
		Keywords: []string{"discord", "server", "nitro", "mention"}, Category: domain.CategoryCommunication, Confidence: 92},
	{Name: "Zoom", Domains: []string{"zoom.us"}, Aliases: []string{"zoom.us"},
		Keywords: []string{"zoom", "meeting", "webinar", "recording"}, Category: domain.CategoryCommunication, Confidence: 90},

	// Gaming
	{Name: "Steam", Domains: []string{"steampowered.com", "steamcommunity.com"}, Aliases: []string{"steampowered", "steamcommunity"},
		Keywords: []string{"steam", "wishlist", "game", "guard code"}, Category: domain.CategoryGaming, Confidence: 90},
	{Name: "Epic Games", Domains: []string{"epicgames.com"}, Aliases: []string{"epicgames"},
		Keywords: []string{"epic games", "fortnite", "free game", "launcher"}, Category: domain.CategoryGaming, Confidence: 90},
	{Name: "Nintendo", Domains: []string{"nintendo.com", "nintendo.net"}, Aliases: []string{"nintendo"},
		Keywords: []string{"nintendo", "switch", "eshop", "my nintendo"}, Category: domain.CategoryGaming, Confidence: 90},
}
