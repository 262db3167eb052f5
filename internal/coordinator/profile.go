package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/gateway"
)

// ProfileState is the logged-in user's profile and the state of the last
// update.
type ProfileState struct {
	Detail gateway.UserDetail
	Loaded bool
	Update Status
	Err    string
}

func (s ProfileState) clone() ProfileState {
	s.Detail.Tracks = slices.Clone(s.Detail.Tracks)
	return s
}

// Profile keeps the user's profile in sync with the login state.
type Profile struct {
	accounts Accounts
	creds    Credentials
	log      zerolog.Logger
	feed     *Feed[ProfileState]
}

// NewProfile creates a Profile coordinator. Call Run to follow logins.
func NewProfile(accounts Accounts, creds Credentials, log zerolog.Logger) *Profile {
	return &Profile{
		accounts: accounts,
		creds:    creds,
		log:      log,
		feed:     newFeed(ProfileState{}, ProfileState.clone),
	}
}

// State returns the current state.
func (p *Profile) State() ProfileState { return p.feed.Get() }

// Subscribe streams state changes.
func (p *Profile) Subscribe() (<-chan ProfileState, func()) { return p.feed.Subscribe() }

// Run loads the profile on login and clears it on logout until ctx is done.
func (p *Profile) Run(ctx context.Context) error {
	watch := p.creds.Watch()
	defer watch.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case loggedIn, ok := <-watch.C:
			if !ok {
				return nil
			}
			if !loggedIn {
				p.feed.update(func(s *ProfileState) { *s = ProfileState{} })
				continue
			}
			if err := p.Load(ctx); err != nil {
				p.log.Warn().Err(err).Msg("load profile")
			}
		}
	}
}

// Load fetches the profile. A failed load leaves the previous profile.
func (p *Profile) Load(ctx context.Context) error {
	detail, err := p.accounts.UserDetail(ctx)
	if err != nil {
		return err
	}
	p.feed.update(func(s *ProfileState) {
		s.Detail = *detail
		s.Loaded = true
	})
	return nil
}

// Update changes the bio and, when picturePath is set, the profile
// picture.
func (p *Profile) Update(ctx context.Context, bio, picturePath string) error {
	p.feed.update(func(s *ProfileState) {
		s.Update = StatusLoading
		s.Err = ""
	})

	var picture *gateway.File
	if picturePath != "" {
		f, err := os.Open(picturePath)
		if err != nil {
			return p.failed(err)
		}
		defer f.Close()
		picture = &gateway.File{Name: filepath.Base(picturePath), Reader: f}
	}

	updated, err := p.accounts.UpdateUserDetail(ctx, bio, picture)
	if err != nil {
		return p.failed(err)
	}
	p.feed.update(func(s *ProfileState) {
		s.Detail.Bio = updated.Bio
		s.Detail.ProfileImageBase64 = updated.ProfilePictureBase64
		s.Update = StatusReady
	})
	return nil
}

func (p *Profile) failed(err error) error {
	msg := errmsg.Format(errmsg.OpProfileUpdate, err)
	p.log.Warn().Err(err).Msg("update profile")
	p.feed.update(func(s *ProfileState) {
		s.Update = StatusError
		s.Err = msg
	})
	return err
}
