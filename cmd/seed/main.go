// Package main provides a tool to seed the database with a user and demo notes.
//
// It opens the store configured through the usual environment variables, so it
// must not run while the server holds an embedded database open.
//
// Usage:
//
//	go run ./cmd/seed -email dev@example.com
//	go run ./cmd/seed -email ops@example.com -admin -notes 0
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/samber/do/v2"

	"github.com/quillnotes/quill-server/internal/config"
	"github.com/quillnotes/quill-server/internal/di"
	"github.com/quillnotes/quill-server/internal/di/providers"
	"github.com/quillnotes/quill-server/internal/domain"
	"github.com/quillnotes/quill-server/internal/service"
)

var (
	email    = flag.String("email", "dev@example.com", "Email of the user to create or reuse")
	admin    = flag.Bool("admin", false, "Grant the user the admin role")
	numNotes = flag.Int("notes", len(demoNotes), "Number of demo notes to create")
)

var demoNotes = []service.CreateNoteInput{
	{
		Title:    "Welcome to Quill",
		Content:  "# Welcome\n\nNotes are written in **Markdown**. Try `GET /notes/{id}/html`.",
		Tags:     []string{"getting-started"},
		Category: "meta",
	},
	{
		Title:    "Sourdough schedule",
		Content:  "- Feed starter at 8am\n- Mix dough at 2pm\n- Bake next morning",
		Tags:     []string{"cooking", "weekend"},
		Category: "recipes",
	},
	{
		Title:    "Backup checklist",
		Content:  "1. Export notes\n2. Verify the archive\n3. Rotate old backups",
		Tags:     []string{"ops"},
		Category: "work",
	},
	{
		Title:   "Reading list",
		Content: "*The Pragmatic Programmer*, *Designing Data-Intensive Applications*",
		Tags:    []string{"books", "daily"},
	},
}

func main() {
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := providers.ResolveSecrets(context.Background(), cfg, nil); err != nil {
		log.Fatalf("Failed to resolve secrets: %v", err)
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	ctx := context.Background()
	users := do.MustInvoke[*service.UserService](injector)
	authSvc := do.MustInvoke[*service.AuthService](injector)
	notes := do.MustInvoke[*service.NoteService](injector)
	_ = do.MustInvoke[*providers.SearchHandle](injector)

	user, err := users.FindOrCreate(ctx, domain.Profile{
		Email:     *email,
		FirstName: "Demo",
		LastName:  "User",
		Provider:  "seed",
	})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("User %s (%s), role %s\n", user.Email, user.ID, user.Role)

	if *admin && user.Role != domain.RoleAdmin {
		if user, err = users.AssignRole(ctx, user.ID, domain.RoleAdmin); err != nil {
			log.Fatalf("Failed to grant admin role: %v", err)
		}
		fmt.Println("Granted admin role")
	}

	created := 0
	for i := 0; i < *numNotes; i++ {
		in := demoNotes[i%len(demoNotes)]
		if i >= len(demoNotes) {
			in.Title = fmt.Sprintf("%s #%d", in.Title, i/len(demoNotes)+1)
		}
		if _, err := notes.Create(ctx, in, user.ID); err != nil {
			log.Fatalf("Failed to create note %q: %v", in.Title, err)
		}
		created++
	}
	fmt.Printf("Created %d notes\n", created)

	session, err := authSvc.IssueToken(user)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Fprintf(os.Stdout, "\nAuthorization: Bearer %s\nExpires: %s\n", session.AccessToken, session.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}
