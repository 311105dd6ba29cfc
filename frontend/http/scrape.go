package http

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/vaultseed/tracker/bittorrent"
)

const requestTypeScrape = "scrape"

// handleScrape implements §4.6's scrape handler: read-only, no buffer
// appends, no swarm-creation side effect for an info hash nobody has ever
// announced.
func (f *Frontend) handleScrape(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		f.recordOutcome(requestTypeScrape, outcome, start)
	}()

	req, err := bittorrent.ParseScrape(ctx.QueryArgs(), f.cfg.decodeConfig())
	if err != nil {
		outcome = "client_error"
		WriteError(ctx, err)
		return
	}

	files := make([]bittorrent.Scrape, len(req.InfoHashes))
	for i, ih := range req.InfoHashes {
		files[i] = bittorrent.Scrape{InfoHash: ih}
		if sw, ok := f.swarms.Get(ih); ok {
			st := sw.Stats()
			files[i].Complete = uint32(st.Seeders)
			files[i].Incomplete = uint32(st.Leechers)
			files[i].Downloaded = uint32(st.Completed)
		}
	}

	resp := &bittorrent.ScrapeResponse{Files: files}
	if err = WriteScrapeResponse(ctx, resp); err != nil {
		outcome = "internal_error"
		logger.Error().Err(err).Msg("failed to encode scrape response")
	}
}
