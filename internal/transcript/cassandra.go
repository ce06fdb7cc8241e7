package transcript

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

const selectTranscript = `SELECT transcript_json FROM transcripts WHERE video_id = ? LIMIT 1`

// CassandraSource reads transcripts written by the speech-to-text workers
// into a Cassandra "transcripts" table keyed by video_id.
type CassandraSource struct {
	session *gocql.Session
	fetch   func(ctx context.Context, videoID string) (string, error)
}

// ConnectCassandra opens a session against the given hosts and keyspace.
func ConnectCassandra(hosts []string, keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}
	return session, nil
}

func NewCassandraSource(session *gocql.Session) *CassandraSource {
	s := &CassandraSource{session: session}
	s.fetch = s.query
	return s
}

func (s *CassandraSource) query(ctx context.Context, videoID string) (string, error) {
	var raw string
	err := s.session.Query(selectTranscript, videoID).WithContext(ctx).Scan(&raw)
	if errors.Is(err, gocql.ErrNotFound) {
		return "", ErrNotAvailable
	}
	if err != nil {
		return "", fmt.Errorf("error fetching transcript: %w", err)
	}
	return raw, nil
}

func (s *CassandraSource) GetTranscript(ctx context.Context, videoID string) (*Transcript, error) {
	raw, err := s.fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNotAvailable
	}
	return Parse([]byte(raw))
}

func (s *CassandraSource) Close() {
	if s.session != nil {
		s.session.Close()
	}
}
