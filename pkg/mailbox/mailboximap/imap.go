// Package mailboximap implements the mailbox.Store port on top of IMAP
// using go-imap v2. One Session maps to one authenticated IMAP
// connection; commands are issued sequentially since IMAP forbids
// multiplexing on a single connection.
package mailboximap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/orgpost/orgpost/pkg/config"
	"github.com/orgpost/orgpost/pkg/mailbox"
)

// IMAPStore connects to the shared mailbox over IMAP.
type IMAPStore struct {
	cfg config.MailboxConfig
}

// NewStore creates an IMAP-backed mail store.
func NewStore(cfg config.MailboxConfig) *IMAPStore {
	return &IMAPStore{cfg: cfg}
}

// Connect dials the server and authenticates with the configured address
// and app password.
func (s *IMAPStore) Connect(_ context.Context) (mailbox.Session, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var client *imapclient.Client
	var err error
	if s.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, imapErrors.NewWithCause(ErrDial, err).WithDetail("addr", addr)
	}

	if err := client.Login(s.cfg.Address, s.cfg.AppPassword).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, imapErrors.NewWithCause(ErrLogin, err).
			WithDetail("mailbox", s.cfg.Address)
	}

	return &imapSession{client: client}, nil
}

type imapSession struct {
	client   *imapclient.Client
	selected string
}

func (s *imapSession) selectFolder(folder string) error {
	if s.selected == folder {
		return nil
	}
	if _, err := s.client.Select(folder, nil).Wait(); err != nil {
		return imapErrors.NewWithCause(ErrSelect, err).WithDetail("folder", folder)
	}
	s.selected = folder
	return nil
}

// List enumerates every message UID in the folder (full search, no
// incremental fetch).
func (s *imapSession) List(_ context.Context, folder string) ([]mailbox.MessageID, error) {
	if err := s.selectFolder(folder); err != nil {
		return nil, err
	}

	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, imapErrors.NewWithCause(ErrSearch, err).WithDetail("folder", folder)
	}

	uids := searchData.AllUIDs()
	ids := make([]mailbox.MessageID, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, mailbox.MessageID(strconv.FormatUint(uint64(uid), 10)))
	}
	return ids, nil
}

// Fetch retrieves the full raw message body without marking it seen.
func (s *imapSession) Fetch(_ context.Context, folder string, id mailbox.MessageID) ([]byte, error) {
	if err := s.selectFolder(folder); err != nil {
		return nil, err
	}

	uid, err := strconv.ParseUint(string(id), 10, 32)
	if err != nil {
		return nil, imapErrors.NewWithCause(ErrFetch, err).WithDetail("id", string(id))
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := s.client.Fetch(imap.UIDSetNum(imap.UID(uid)), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, imapErrors.New(ErrFetch).
			WithDetail("folder", folder).
			WithDetail("id", string(id))
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, imapErrors.NewWithCause(ErrFetch, err).WithDetail("id", string(id))
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, imapErrors.New(ErrFetch).
			WithDetail("id", string(id)).
			WithDetail("reason", "empty body section")
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, imapErrors.NewWithCause(ErrFetch, err).WithDetail("id", string(id))
	}

	return raw, nil
}

// Close logs out and drops the connection.
func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}
