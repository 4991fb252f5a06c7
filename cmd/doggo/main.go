// Package main provides the doggo command line client for the Doggo
// Diary API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"doggodiary/internal/api"
	"doggodiary/internal/authoring"
	"doggodiary/internal/comments"
	"doggodiary/internal/config"
	"doggodiary/internal/editing"
	"doggodiary/internal/observability"
	"doggodiary/internal/session"
	"doggodiary/internal/viewer"

	"gopkg.in/yaml.v3"
)

const version = "1.0.0"

func usage() {
	fmt.Println("Usage: doggo <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login      -username -password          Log in and persist the session")
	fmt.Println("  logout                                  Log out and clear the session")
	fmt.Println("  signup     -username -password -confirm Create an account")
	fmt.Println("  whoami                                  Show the current session")
	fmt.Println("  posts      [-unpublished]               List posts")
	fmt.Println("  read       -post [-page]                Read one page of a post")
	fmt.Println("  like       -post                        Toggle your like on a post")
	fmt.Println("  publish    -post                        Toggle a post's publication")
	fmt.Println("  comments   -post                        List a post's comments")
	fmt.Println("  comment    -post -message               Comment on a post")
	fmt.Println("  delete-comment -id                      Delete a comment")
	fmt.Println("  new        -manifest                    Create a post from a yaml manifest")
	fmt.Println("  edit-page  -post -page -surface         Replace a page's content")
	fmt.Println("  watch                                   Follow session changes from other processes")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	observability.SetLevel(cfg.LogLevel)

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "doggo-cli",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingOTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	var store *session.Store
	client := api.NewFromConfig(cfg,
		api.WithTokenSource(func() string {
			if store == nil {
				return ""
			}
			return store.Token()
		}),
		api.WithSessionExpiredHook(func() {
			if store != nil {
				store.ForceAnonymous()
			}
		}),
	)
	store = session.NewStore(client, cfg.SessionFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, client: client, store: store}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "login":
		app.login(ctx, args)
	case "logout":
		app.logout(ctx)
	case "signup":
		app.signup(ctx, args)
	case "whoami":
		app.whoami(ctx)
	case "posts":
		app.posts(ctx, args)
	case "read":
		app.read(ctx, args)
	case "like":
		app.like(ctx, args)
	case "publish":
		app.publish(ctx, args)
	case "comments":
		app.listComments(ctx, args)
	case "comment":
		app.comment(ctx, args)
	case "delete-comment":
		app.deleteComment(ctx, args)
	case "new":
		app.newPost(ctx, args)
	case "edit-page":
		app.editPage(ctx, args)
	case "watch":
		app.watch(ctx)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
	}
}

type app struct {
	cfg    *config.Config
	client *api.Client
	store  *session.Store
}

func (a *app) load(ctx context.Context) {
	if err := a.store.Load(ctx); err != nil {
		log.Printf("Session refresh failed: %v", err)
	}
}

func (a *app) login(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if *username == "" || *password == "" {
		log.Fatal("login requires -username and -password")
	}

	a.load(ctx)
	if err := a.store.Login(ctx, *username, *password); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	if a.store.ConsumeFlag(session.FlagLoginSuccess) {
		fmt.Printf("Logged in as %s\n", *username)
	}
}

func (a *app) logout(ctx context.Context) {
	a.load(ctx)
	if err := a.store.Logout(ctx); err != nil {
		log.Fatalf("Logout failed: %v", err)
	}
	fmt.Println("Logged out")
}

func (a *app) signup(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	avatar := fs.String("avatar", "", "avatar URL (optional)")
	_ = fs.Parse(args)
	if *username == "" || *password == "" {
		log.Fatal("signup requires -username and -password")
	}

	a.load(ctx)
	msg, err := a.store.Signup(ctx, api.SignupInput{
		Username:        *username,
		Password:        *password,
		ConfirmPassword: *confirm,
		Avatar:          *avatar,
	})
	if err != nil {
		log.Fatalf("Signup failed: %v", err)
	}
	if msg == "" {
		msg = "Account created. You can log in now."
	}
	fmt.Println(msg)
}

func (a *app) whoami(ctx context.Context) {
	a.load(ctx)
	sess := a.store.Session()
	if !sess.IsAuthenticated() {
		fmt.Println("Not logged in")
		return
	}
	u := sess.User
	fmt.Printf("Username: %s\n", u.Username)
	fmt.Printf("Role:     %s\n", u.Role.Role)
	fmt.Printf("Comments: %d\n", u.CommentCount)
	fmt.Printf("Likes:    %d\n", u.LikeCount)
}

func (a *app) viewer(ctx context.Context, unpublished bool) *viewer.ArticleViewer {
	a.load(ctx)
	v := viewer.NewArticleViewer(a.client, a.store)
	var err error
	if unpublished {
		err = v.LoadUnpublished(ctx)
	} else {
		err = v.LoadPublished(ctx)
	}
	if err != nil {
		log.Fatalf("Failed to load posts: %v", err)
	}
	return v
}

func (a *app) posts(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("posts", flag.ExitOnError)
	unpublished := fs.Bool("unpublished", false, "list the unpublished queue instead")
	_ = fs.Parse(args)

	v := a.viewer(ctx, *unpublished)
	posts := v.Posts()
	if len(posts) == 0 {
		fmt.Println("No posts found")
		return
	}
	for _, p := range posts {
		fmt.Printf("%4d  %s  %-40s  %d pages  %d likes  [%s]\n",
			p.ID,
			p.CreatedAt.Format("2006-01-02"),
			p.Title,
			len(p.Pages),
			p.LikeCount(),
			strings.Join(p.TagNames(), ", "),
		)
	}
}

func (a *app) read(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id (defaults to the newest post)")
	page := fs.Int("page", 1, "page number")
	_ = fs.Parse(args)

	v := a.viewer(ctx, false)
	if *postID != 0 {
		if err := v.Select(uint(*postID)); err != nil {
			log.Fatalf("Failed to select post: %v", err)
		}
	}
	post, ok := v.Current()
	if !ok {
		fmt.Println("No posts found")
		return
	}
	for i := 1; i < *page; i++ {
		if !v.NextPage() {
			log.Fatalf("Post has only %d pages", len(post.Pages))
		}
	}
	cur, ok := v.CurrentPage()
	if !ok {
		fmt.Println("This post has no pages")
		return
	}
	idx, total := v.PageCursor()
	fmt.Printf("%s (page %d/%d)\n\n", post.Title, idx+1, total)
	if cur.Heading != "" {
		fmt.Printf("## %s\n", cur.Heading)
	}
	if cur.Subtitle != "" {
		fmt.Printf("#### %s\n", cur.Subtitle)
	}
	fmt.Printf("\n%s\n", cur.Content)
	for _, img := range cur.Images {
		fmt.Printf("\n[image %d] %s — %s\n", img.Order, img.URL, img.Caption)
	}
}

func (a *app) like(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id")
	_ = fs.Parse(args)
	if *postID == 0 {
		log.Fatal("like requires -post")
	}

	v := a.viewer(ctx, false)
	if err := v.Select(uint(*postID)); err != nil {
		log.Fatalf("Failed to select post: %v", err)
	}
	if !a.store.IsAuthenticated() {
		fmt.Println("Log in to like posts")
		return
	}
	if err := v.ToggleLike(ctx); err != nil {
		log.Fatalf("Failed to toggle like: %v", err)
	}
	if v.Liked() {
		fmt.Printf("Liked. The post now has %d likes.\n", v.LikeCount())
	} else {
		fmt.Printf("Like removed. The post now has %d likes.\n", v.LikeCount())
	}
}

func (a *app) publish(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id")
	unpublished := fs.Bool("unpublished", false, "look in the unpublished queue")
	_ = fs.Parse(args)
	if *postID == 0 {
		log.Fatal("publish requires -post")
	}

	v := a.viewer(ctx, *unpublished)
	if err := v.Select(uint(*postID)); err != nil {
		log.Fatalf("Failed to select post: %v", err)
	}
	published, err := v.Publish(ctx)
	if err != nil {
		log.Fatalf("Failed to change publication: %v", err)
	}
	if published {
		fmt.Println("Post is now published")
	} else {
		fmt.Println("Post is now unpublished")
	}
}

func (a *app) panel(ctx context.Context, postID uint) *comments.Panel {
	a.load(ctx)
	p := comments.NewPanel(a.client, a.store, postID)
	if err := p.Load(ctx); err != nil {
		log.Fatalf("Failed to load comments: %v", err)
	}
	return p
}

func (a *app) listComments(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id")
	_ = fs.Parse(args)
	if *postID == 0 {
		log.Fatal("comments requires -post")
	}

	p := a.panel(ctx, uint(*postID))
	list := p.Comments()
	if len(list) == 0 {
		fmt.Println("No comments yet")
		return
	}
	for _, c := range list {
		marker := " "
		if p.CanDelete(c) {
			marker = "*"
		}
		fmt.Printf("%s %4d  %s  %s: %s\n",
			marker, c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.User.Username, c.Content)
	}
}

func (a *app) comment(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id")
	message := fs.String("message", "", "comment text")
	_ = fs.Parse(args)
	if *postID == 0 || *message == "" {
		log.Fatal("comment requires -post and -message")
	}

	p := a.panel(ctx, uint(*postID))
	if err := p.Send(ctx, *message); err != nil {
		log.Fatalf("Failed to send comment: %v", err)
	}
	if notice := p.Notice(); notice != "" {
		fmt.Println(notice)
		return
	}
	fmt.Println("Comment posted")
}

func (a *app) deleteComment(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("delete-comment", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id")
	commentID := fs.Uint("id", 0, "comment id")
	_ = fs.Parse(args)
	if *postID == 0 || *commentID == 0 {
		log.Fatal("delete-comment requires -post and -id")
	}

	p := a.panel(ctx, uint(*postID))
	if err := p.Delete(ctx, uint(*commentID)); err != nil {
		log.Fatalf("Failed to delete comment: %v", err)
	}
	fmt.Println("Comment deleted")
}

// manifest is the yaml shape of a draft for the new command.
type manifest struct {
	Title     string   `yaml:"title"`
	Content   string   `yaml:"content"`
	Published bool     `yaml:"published"`
	Tags      []string `yaml:"tags"`
	Thumbnail struct {
		File    string `yaml:"file"`
		AltText string `yaml:"altText"`
	} `yaml:"thumbnail"`
	Pages []struct {
		Heading  string `yaml:"heading"`
		Subtitle string `yaml:"subtitle"`
		Content  string `yaml:"content"`
		Layout   string `yaml:"layout"`
		Images   []struct {
			File    string `yaml:"file"`
			Caption string `yaml:"caption"`
			AltText string `yaml:"altText"`
		} `yaml:"images"`
	} `yaml:"pages"`
}

func (a *app) newPost(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	path := fs.String("manifest", "", "yaml draft manifest")
	_ = fs.Parse(args)
	if *path == "" {
		log.Fatal("new requires -manifest")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Failed to read manifest: %v", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		log.Fatalf("Failed to parse manifest: %v", err)
	}

	previews, err := authoring.NewFilePreviews(a.cfg.PreviewDir)
	if err != nil {
		log.Fatalf("Failed to prepare preview directory: %v", err)
	}

	base := filepath.Dir(*path)
	builder := authoring.NewBuilder(previews)
	builder.SetTitle(m.Title)
	builder.SetContent(m.Content)
	builder.SetPublished(m.Published)
	for _, tag := range m.Tags {
		builder.AddTag(tag)
	}
	if m.Thumbnail.File != "" {
		content := readRel(base, m.Thumbnail.File)
		if err := builder.SetThumbnail(filepath.Base(m.Thumbnail.File), content, m.Thumbnail.AltText); err != nil {
			log.Fatalf("Failed to stage thumbnail: %v", err)
		}
	}
	for _, page := range m.Pages {
		idx := builder.AddPage(page.Heading, page.Subtitle, page.Content)
		if page.Layout != "" {
			if err := builder.SetPageLayout(idx, page.Layout); err != nil {
				log.Fatalf("Failed to set page layout: %v", err)
			}
		}
		for _, img := range page.Images {
			content := readRel(base, img.File)
			if err := builder.AddImage(idx, filepath.Base(img.File), content, img.Caption, img.AltText); err != nil {
				log.Fatalf("Failed to stage image %s: %v", img.File, err)
			}
		}
	}

	a.load(ctx)
	post, err := builder.Submit(ctx, a.client, a.store)
	if err != nil {
		log.Fatalf("Failed to create post: %v", err)
	}
	fmt.Printf("Created post %d: %s (%d pages)\n", post.ID, post.Title, len(post.Pages))
}

func (a *app) editPage(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("edit-page", flag.ExitOnError)
	postID := fs.Uint("post", 0, "post id")
	page := fs.Int("page", 1, "page number")
	surfacePath := fs.String("surface", "", "file with the combined page content")
	_ = fs.Parse(args)
	if *postID == 0 || *surfacePath == "" {
		log.Fatal("edit-page requires -post and -surface")
	}

	v := a.viewer(ctx, false)
	if err := v.Select(uint(*postID)); err != nil {
		log.Fatalf("Failed to select post: %v", err)
	}
	post, _ := v.Current()

	raw, err := os.ReadFile(*surfacePath)
	if err != nil {
		log.Fatalf("Failed to read surface file: %v", err)
	}

	editor := editing.NewEditor(post, a.client)
	if err := editor.ApplySurface(*page-1, string(raw)); err != nil {
		log.Fatalf("Failed to stage page edit: %v", err)
	}
	for _, res := range editor.Apply(ctx) {
		if res.Err != nil {
			fmt.Printf("FAILED  %s: %v\n", res.Operation, res.Err)
		} else {
			fmt.Printf("ok      %s\n", res.Operation)
		}
	}
}

func (a *app) watch(ctx context.Context) {
	a.load(ctx)
	a.store.Subscribe(func() {
		sess := a.store.Session()
		if sess.IsAuthenticated() {
			fmt.Printf("Session changed: logged in as %s\n", sess.User.Username)
		} else {
			fmt.Println("Session changed: logged out")
		}
	})

	sync, err := session.NewSynchronizer(a.store)
	if err != nil {
		log.Fatalf("Failed to watch session file: %v", err)
	}
	sync.Start(ctx)
	fmt.Printf("Watching %s, press Ctrl-C to stop\n", a.store.Path())
	<-ctx.Done()
	_ = sync.Close()
}

func readRel(base, path string) []byte {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read file %s: %v", path, err)
	}
	return raw
}
