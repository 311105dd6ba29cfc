package bittorrent

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Event represents an event sent by a BitTorrent client in an announce.
type Event uint8

// Event constants.
const (
	// None is a regular, periodic announce.
	None Event = iota
	// Started is sent on the first announce for a torrent.
	Started
	// Stopped is sent when a client is ceasing participation in a swarm.
	Stopped
	// Completed is sent once, when a client transitions from leeching to
	// seeding.
	Completed
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	default:
		return ""
	}
}

// ParseEvent parses the event query parameter. Unknown strings (including
// the empty string) are treated as None, per spec: "unknown strings are
// treated as absent (periodic update)".
func ParseEvent(s string) Event {
	switch strings.ToLower(s) {
	case "started":
		return Started
	case "stopped":
		return Stopped
	case "completed":
		return Completed
	default:
		return None
	}
}

// AnnounceRequest represents the decoded and validated parameters of an
// announce request (C1 in the tracker's component breakdown).
type AnnounceRequest struct {
	Peer

	InfoHash InfoHash
	Passkey  string
	Event    Event

	Uploaded   uint64
	Downloaded uint64
	Left       uint64
	NumWant    uint32

	UserAgent string

	EventProvided   bool
	NumWantProvided bool
	IPProvided      bool
}

// MarshalZerologObject writes the request's fields into a zerolog event.
func (r AnnounceRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("infoHash", r.InfoHash).
		Object("peer", r.Peer).
		Stringer("event", r.Event).
		Uint64("uploaded", r.Uploaded).
		Uint64("downloaded", r.Downloaded).
		Uint64("left", r.Left).
		Uint32("numWant", r.NumWant)
}

// AnnounceResponse represents the data needed to build an announce response.
//
// Peers is a single address-family batch: the selector never mixes IPv4 and
// IPv6 peers in one response (compact format is fixed-width per family).
type AnnounceResponse struct {
	Interval    time.Duration
	MinInterval time.Duration
	Complete    uint32
	Incomplete  uint32
	Peers       []Peer
	IsIPv6      bool
}

// ScrapeRequest represents the decoded parameters of a scrape request.
type ScrapeRequest struct {
	InfoHashes []InfoHash
}

// Scrape represents a single torrent's statistics, as returned by a scrape.
type Scrape struct {
	InfoHash   InfoHash
	Complete   uint32
	Incomplete uint32
	Downloaded uint32
}

// ScrapeResponse represents the data needed to build a scrape response. Files
// is in the same order as the InfoHashes of the originating ScrapeRequest.
type ScrapeResponse struct {
	Files []Scrape
}
