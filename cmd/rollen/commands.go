package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/rollen/internal/coordinator"
	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/logging"
)

type command struct {
	name    string
	args    string
	help    string
	minArgs int
	run     func(ctx context.Context, a *app, args []string, out io.Writer) error
}

var commands = []command{
	{name: "login", args: "<user> <password>", help: "log in and store the session token", minArgs: 2, run: runLogin},
	{name: "register", args: "<name> <email> <password>", help: "create an account", minArgs: 3, run: runRegister},
	{name: "logout", help: "forget the stored session", run: runLogout},
	{name: "profile", args: "[-bio text] [-picture file]", help: "show or update your profile", run: runProfile},
	{name: "tracks", help: "list all songs", run: runTracks},
	{name: "liked", help: "list liked songs", run: runLiked},
	{name: "playlists", help: "list playlists", run: runPlaylists},
	{name: "playlist", args: "<id>", help: "list the songs of a playlist", minArgs: 1, run: runPlaylist},
	{name: "search", args: "<query>", help: "search songs", minArgs: 1, run: runSearch},
	{name: "comments", args: "<song>", help: "list comments of a song", minArgs: 1, run: runComments},
	{name: "comment", args: "<song> <text>", help: "comment on a song", minArgs: 2, run: runComment},
	{name: "like", args: "<song>", help: "like a song", minArgs: 1, run: runLike},
	{name: "unlike", args: "<song>", help: "unlike a song", minArgs: 1, run: runUnlike},
	{name: "create-playlist", args: "<title> [song...]", help: "create a playlist", minArgs: 1, run: runCreatePlaylist},
	{name: "upload", args: "[-title t] [-cover img] <file>", help: "upload a song", minArgs: 1, run: runUpload},
	{name: "play", args: "<song>", help: "play a song", minArgs: 1, run: runPlay},
	{name: "play-playlist", args: "<id> [song]", help: "play a playlist (0 is Liked Songs)", minArgs: 1, run: runPlayPlaylist},
	{name: "resume", help: "resume the last session", run: runResume},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// failure turns an operation error into the message shown to the user.
func failure(op errmsg.Op, err error) error {
	return errors.New(errmsg.Format(op, err))
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runLogin(ctx context.Context, a *app, args []string, out io.Writer) error {
	auth := a.auth()
	if err := auth.Login(ctx, args[0], args[1]); err != nil {
		return errors.New(auth.State().Err)
	}
	fmt.Fprintf(out, "Logged in as %s\n", auth.State().Username)
	return nil
}

func runRegister(ctx context.Context, a *app, args []string, out io.Writer) error {
	auth := a.auth()
	if err := auth.Register(ctx, args[0], args[1], args[2]); err != nil {
		return errors.New(auth.State().Err)
	}
	fmt.Fprintf(out, "Account %s created, you can now log in\n", args[0])
	return nil
}

func runLogout(_ context.Context, a *app, _ []string, out io.Writer) error {
	a.auth().Logout()
	if err := a.state.ClearSession(); err != nil {
		a.log.Warn().Err(err).Msg("clear saved session")
	}
	fmt.Fprintln(out, "Logged out")
	return nil
}

func runProfile(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bio := fs.String("bio", "", "new bio")
	picture := fs.String("picture", "", "new profile picture")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	p := coordinator.NewProfile(a.client, a.creds, logging.Component(a.log, "profile"))
	if err := p.Load(ctx); err != nil {
		return failure(errmsg.OpProfileLoad, err)
	}
	if *bio != "" || *picture != "" {
		newBio := *bio
		if newBio == "" {
			newBio = p.State().Detail.Bio
		}
		if err := p.Update(ctx, newBio, *picture); err != nil {
			return errors.New(p.State().Err)
		}
	}
	printProfile(out, p.State().Detail)
	return nil
}

// loadCatalog returns an Audio coordinator with the catalog loaded.
func loadCatalog(ctx context.Context, a *app) (*coordinator.Audio, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	audio := a.catalog()
	if err := audio.Refresh(ctx); err != nil {
		return nil, errors.New(audio.State().Err)
	}
	return audio, nil
}

func runTracks(ctx context.Context, a *app, _ []string, out io.Writer) error {
	audio, err := loadCatalog(ctx, a)
	if err != nil {
		return err
	}
	return printTracks(out, audio.State().Tracks)
}

func runLiked(ctx context.Context, a *app, _ []string, out io.Writer) error {
	audio, err := loadCatalog(ctx, a)
	if err != nil {
		return err
	}
	return printTracks(out, audio.State().Liked)
}

func runPlaylists(ctx context.Context, a *app, _ []string, out io.Writer) error {
	audio, err := loadCatalog(ctx, a)
	if err != nil {
		return err
	}
	return printPlaylists(out, audio.State().Playlists)
}

func runPlaylist(ctx context.Context, a *app, args []string, out io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	if id == coordinator.LikedPlaylistID {
		return runLiked(ctx, a, nil, out)
	}
	pl, err := a.client.Playlist(ctx, id)
	if err != nil {
		return failure(errmsg.OpPlaylistLoad, err)
	}
	fmt.Fprintf(out, "%s by %s\n\n", pl.Title, pl.Author)
	return printTracks(out, pl.Tracks)
}

func runSearch(ctx context.Context, a *app, args []string, out io.Writer) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	s := coordinator.NewSearch(a.client, logging.Component(a.log, "search"))
	defer s.Close()
	if err := s.Search(ctx, strings.Join(args, " ")); err != nil {
		return errors.New(s.State().Err)
	}
	results := s.State().Results
	if len(results) == 0 {
		fmt.Fprintln(out, "No songs found")
		return nil
	}
	return printTracks(out, results)
}

func runComments(ctx context.Context, a *app, args []string, out io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	c := coordinator.NewComments(a.client, logging.Component(a.log, "comments"))
	if err := c.Load(ctx, id); err != nil {
		return errors.New(c.State().Err)
	}
	return printComments(out, c.State().Comments)
}

func runComment(ctx context.Context, a *app, args []string, out io.Writer) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	c := coordinator.NewComments(a.client, logging.Component(a.log, "comments"))
	if err := c.Add(ctx, id, strings.Join(args[1:], " ")); err != nil {
		if errors.Is(err, coordinator.ErrEmptyComment) {
			return err
		}
		return errors.New(c.State().Err)
	}
	return printComments(out, c.State().Comments)
}

func runLike(ctx context.Context, a *app, args []string, out io.Writer) error {
	return setLike(ctx, a, args[0], true, out)
}

func runUnlike(ctx context.Context, a *app, args []string, out io.Writer) error {
	return setLike(ctx, a, args[0], false, out)
}

func setLike(ctx context.Context, a *app, arg string, liked bool, out io.Writer) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	audio := a.catalog()
	if liked {
		err = audio.Like(ctx, id)
	} else {
		err = audio.Unlike(ctx, id)
	}
	if err != nil {
		return errors.New(audio.State().Err)
	}
	if liked {
		fmt.Fprintf(out, "Liked song %d\n", id)
	} else {
		fmt.Fprintf(out, "Unliked song %d\n", id)
	}
	return nil
}

func runCreatePlaylist(ctx context.Context, a *app, args []string, out io.Writer) error {
	ids, err := parseIDs(args[1:])
	if err != nil {
		return err
	}
	if err := a.requireLogin(); err != nil {
		return err
	}
	audio := a.catalog()
	if err := audio.CreatePlaylist(ctx, args[0], ids); err != nil {
		if msg := audio.State().Err; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	fmt.Fprintf(out, "Created playlist %q\n", strings.TrimSpace(args[0]))
	return printPlaylists(out, audio.State().Playlists)
}

func runUpload(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "song title (defaults to the file tag or name)")
	cover := fs.String("cover", "", "cover image")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: rollen upload [-title t] [-cover img] <file>")
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		return failure(errmsg.OpUpload, err)
	}
	if err := a.requireLogin(); err != nil {
		return err
	}

	audio := a.catalog()
	if err := audio.UploadTrack(ctx, *title, path, *cover); err != nil {
		return errors.New(audio.State().Err)
	}
	fmt.Fprintf(out, "Uploaded %s (%s)\n", info.Name(), humanize.Bytes(uint64(info.Size())))
	return nil
}
