package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// DefaultPort is the FTP control port used when Credentials.Port is zero.
const DefaultPort = 21

// Credentials describe how to open an FTP session.
type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string

	// TLS upgrades the control connection with AUTH TLS before login.
	TLS                bool
	InsecureSkipVerify bool

	// ListHidden asks the server for hidden entries (LIST -a).
	ListHidden bool

	// Timeout bounds the dial. Zero means no timeout.
	Timeout time.Duration
}

// Addr returns host:port, filling in the default port.
func (c Credentials) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Session is one authenticated FTP control connection. It implements Lister.
type Session struct {
	conn  *ftp.ServerConn
	addr  string
	conns *connSet
}

// Dial connects and logs in. Binary transfer type and UTF-8 mode are
// negotiated by the client during login; with TLS the PBSZ/PROT exchange
// happens there as well.
func Dial(ctx context.Context, creds Credentials) (*Session, error) {
	addr := creds.Addr()
	if creds.Host == "" {
		return nil, &ConnectionError{Addr: addr, Err: errors.New("no host given")}
	}

	conns := &connSet{
		ctx:    ctx,
		dialer: net.Dialer{Timeout: creds.Timeout},
		conns:  make(map[*trackedConn]struct{}),
	}
	opts := []ftp.DialOption{ftp.DialWithDialFunc(conns.dial)}
	if creds.TLS {
		conns.tls = &tls.Config{
			ServerName:         creds.Host,
			InsecureSkipVerify: creds.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed servers
		}
		opts = append(opts, ftp.DialWithExplicitTLS(conns.tls))
	}
	if creds.ListHidden {
		opts = append(opts, ftp.DialWithForceListHidden(true))
	}

	// A server that accepts the connection and then goes quiet would hold
	// the greeting or login forever.
	stop := context.AfterFunc(ctx, conns.expire)
	defer stop()

	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: cause(ctx, err)}
	}
	if err := conn.Login(creds.User, creds.Password); err != nil {
		_ = conn.Quit()
		return nil, &ConnectionError{Addr: addr, Err: cause(ctx, err)}
	}
	if !stop() {
		_ = conn.Quit()
		return nil, &ConnectionError{Addr: addr, Err: ctx.Err()}
	}
	return &Session{conn: conn, addr: addr, conns: conns}, nil
}

// Addr returns the address the session is connected to.
func (s *Session) Addr() string { return s.addr }

// List changes into dir and lists it. If ctx is cancelled while the call is
// in flight the session is shut down: QUIT is sent and every connection it
// opened, control and data, is expired so the call returns. The session is
// unusable afterwards.
func (s *Session) List(ctx context.Context, dir string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, &ListingError{Path: dir, Err: err}
	}
	stop := context.AfterFunc(ctx, s.abort)
	defer stop()

	if dir != "" {
		if err := s.conn.ChangeDir(dir); err != nil {
			return Listing{}, &ListingError{Path: dir, Err: cause(ctx, err)}
		}
	}
	entries, err := s.conn.List("")
	if err != nil {
		return Listing{}, &ListingError{Path: dir, Err: cause(ctx, err)}
	}
	return classify(entries), nil
}

// CurrentPath returns the working directory (PWD).
func (s *Session) CurrentPath(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.conn.CurrentDir()
}

// Close sends QUIT and closes the connection.
func (s *Session) Close() error {
	return s.conn.Quit()
}

func (s *Session) abort() {
	_ = s.conn.Quit()
	s.conns.expire()
}

// cause prefers the context error so callers can tell a cancelled call apart
// from a server-side failure.
func cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// classify splits raw entries into files and directories. Links and
// unknown entry types are neither.
func classify(entries []*ftp.Entry) Listing {
	var l Listing
	for _, e := range entries {
		if e == nil || e.Name == "." || e.Name == ".." || e.Name == "" {
			continue
		}
		switch e.Type {
		case ftp.EntryTypeFile:
			l.Files = append(l.Files, e.Name)
		case ftp.EntryTypeFolder:
			l.Directories = append(l.Directories, e.Name)
		}
	}
	return l
}

// connSet tracks every connection a session dials so a cancelled call can
// unblock whichever one it is waiting on. The first dial is the control
// connection; later ones are data connections.
type connSet struct {
	ctx    context.Context
	dialer net.Dialer
	tls    *tls.Config

	mu      sync.Mutex
	conns   map[*trackedConn]struct{}
	dials   int
	expired bool
}

func (s *connSet) dial(network, address string) (net.Conn, error) {
	s.mu.Lock()
	control := s.dials == 0
	s.dials++
	s.mu.Unlock()

	ctx := context.Background()
	if control {
		ctx = s.ctx
	}
	raw, err := s.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}

	c := &trackedConn{Conn: raw, set: s}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	if s.expired {
		_ = raw.SetDeadline(time.Now())
	}
	s.mu.Unlock()

	// The client only upgrades the control connection itself. Data
	// connections are protected (PROT P) once TLS is on.
	if !control && s.tls != nil {
		return tls.Client(c, s.tls), nil
	}
	return c, nil
}

// expire makes every pending and future read or write fail immediately.
func (s *connSet) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
	now := time.Now()
	for c := range s.conns {
		_ = c.SetDeadline(now)
	}
}

func (s *connSet) forget(c *trackedConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

type trackedConn struct {
	net.Conn
	set *connSet
}

func (c *trackedConn) Close() error {
	c.set.forget(c)
	return c.Conn.Close()
}
