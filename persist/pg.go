package persist

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaultseed/tracker/pkg/conf"
	"github.com/vaultseed/tracker/pkg/log"
)

var pgLogger = log.NewLogger("persist.pg")

// PGConfig holds the configuration of the PostgreSQL persistence sink.
type PGConfig struct {
	ConnectionString string `cfg:"connection_string"`
}

// PGSink implements Sink against PostgreSQL via pgx's connection pool,
// issuing the multi-row upserts of §4.5.3/§6's persistence sink schema.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink parses icfg into a PGConfig and opens a connection pool.
func NewPGSink(ctx context.Context, icfg conf.MapConfig) (*PGSink, error) {
	var cfg PGConfig
	if err := icfg.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	return &PGSink{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PGSink) Close() { s.pool.Close() }

// FlushPeers implements Sink: an upsert keyed on (info_hash, endpoint),
// overwriting every mutable column and last_seen, per §6's peers table.
func (s *PGSink) FlushPeers(ctx context.Context, updates []PeerUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	const cols = 9
	var sb strings.Builder
	sb.WriteString(`INSERT INTO peers (info_hash, endpoint, user_id, uploaded, downloaded, "left", is_seeder, user_agent, last_seen) VALUES `)

	args := make([]any, 0, len(updates)*cols)
	for i, u := range updates {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args, []byte(u.InfoHash.RawString()), u.Endpoint.String(), u.UserID,
			u.Uploaded, u.Downloaded, u.Left, u.IsSeeder, u.UserAgent, u.LastSeen)
	}

	sb.WriteString(` ON CONFLICT (info_hash, endpoint) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		uploaded = EXCLUDED.uploaded,
		downloaded = EXCLUDED.downloaded,
		"left" = EXCLUDED."left",
		is_seeder = EXCLUDED.is_seeder,
		user_agent = EXCLUDED.user_agent,
		last_seen = EXCLUDED.last_seen`)

	_, err := s.pool.Exec(ctx, sb.String(), args...)
	if err != nil {
		pgLogger.Error().Err(err).Int("rows", len(updates)).Msg("peer upsert failed")
	}
	return err
}

// FlushTorrents implements Sink: an upsert keyed on info_hash, overwriting
// seeders/leechers and adding the completed delta into the stored total.
func (s *PGSink) FlushTorrents(ctx context.Context, updates []TorrentUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	const cols = 4
	var sb strings.Builder
	sb.WriteString("INSERT INTO torrent_stats (info_hash, seeders, leechers, completed, last_updated) VALUES ")

	args := make([]any, 0, len(updates)*cols)
	for i, u := range updates {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,now())", base+1, base+2, base+3, base+4)
		args = append(args, []byte(u.InfoHash.RawString()), u.Seeders, u.Leechers, u.CompletedDelta)
	}

	sb.WriteString(` ON CONFLICT (info_hash) DO UPDATE SET
		seeders = EXCLUDED.seeders,
		leechers = EXCLUDED.leechers,
		completed = torrent_stats.completed + EXCLUDED.completed,
		last_updated = now()`)

	_, err := s.pool.Exec(ctx, sb.String(), args...)
	if err != nil {
		pgLogger.Error().Err(err).Int("rows", len(updates)).Msg("torrent stats upsert failed")
	}
	return err
}
