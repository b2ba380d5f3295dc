package main

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// ---- session ----

func loginCmd(a *app) *cobra.Command {
	var email, password string
	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), true, "Login", map[string]any{"email": email, "password": password})
			if err != nil {
				return err
			}
			return a.storeSession(out, email)
		},
	}
	c.Flags().StringVarP(&email, "email", "e", "", "email")
	c.Flags().StringVarP(&password, "password", "p", "", "password")
	return c
}

func registerCmd(a *app) *cobra.Command {
	var name, email, password string
	c := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), true, "Register",
				map[string]any{"name": name, "email": email, "password": password})
			if err != nil {
				return err
			}
			return a.storeSession(out, email)
		},
	}
	c.Flags().StringVarP(&name, "name", "n", "", "display name")
	c.Flags().StringVarP(&email, "email", "e", "", "email")
	c.Flags().StringVarP(&password, "password", "p", "", "password")
	return c
}

func (a *app) storeSession(out map[string]any, email string) error {
	tok, _ := out["token"].(string)
	if tok == "" {
		return errors.New("server returned no token")
	}
	exp := tokenExpiry(tok, a.now().Add(time.Hour))
	if err := saveToken(tokenFile{Token: tok, ExpiresAt: exp, Email: email}); err != nil {
		return err
	}
	a.printJSON(out["user"])
	return nil
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the cached token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadToken(a.now()); err == nil {
				if _, err := a.call(cmd.Context(), false, "Logout", nil); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
				}
			}
			if err := removeToken(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
}

// ---- content ----

type row struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Views    any    `json:"views"`
	Updated  string `json:"updatedAt"`
}

func rows(out map[string]any) []row {
	items, _ := out["items"].([]any)
	rs := make([]row, 0, len(items))
	for _, v := range items {
		m, _ := v.(map[string]any)
		rs = append(rs, row{
			ID:       str(m["id"]),
			Title:    str(m["title"]),
			Status:   str(m["status"]),
			Category: str(m["category"]),
			Views:    m["views"],
			Updated:  str(m["updatedAt"]),
		})
	}
	return rs
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func listCmd(a *app) *cobra.Command {
	var search, statusF, category, sortBy, order string
	c := &cobra.Command{
		Use:   "list",
		Short: "List content, optionally filtered and sorted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "QueryContent", map[string]any{
				"search":    search,
				"status":    statusF,
				"category":  category,
				"sortBy":    sortBy,
				"sortOrder": order,
			})
			if err != nil {
				return err
			}
			a.printJSON(rows(out))
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&search, "search", "s", "", "match title, excerpt or content")
	f.StringVar(&statusF, "status", "all", "draft|published|archived|all")
	f.StringVar(&category, "category", "all", "category or all")
	f.StringVar(&sortBy, "sort", "updatedAt", "title|updatedAt|views")
	f.StringVar(&order, "order", "desc", "asc|desc")
	return c
}

func getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.call(cmd.Context(), false, "GetContent", map[string]any{"id": args[0]})
			if err != nil {
				return err
			}
			a.printJSON(out["item"])
			return nil
		},
	}
}

func createCmd(a *app) *cobra.Command {
	var (
		title, slug, body, bodyFile, excerpt, cover, category, statusF string
		tags                                                           []string
	)
	c := &cobra.Command{
		Use:   "create",
		Short: "Create an item (body from --content or --file, - for stdin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bodyFile != "" {
				b, err := readAll(bodyFile)
				if err != nil {
					return err
				}
				body = string(b)
			}
			tagList := make([]any, 0, len(tags))
			for _, t := range tags {
				tagList = append(tagList, strings.TrimSpace(t))
			}
			req := map[string]any{
				"title":      title,
				"content":    body,
				"excerpt":    excerpt,
				"coverImage": cover,
				"category":   category,
				"status":     statusF,
				"tags":       tagList,
			}
			if slug != "" {
				req["slug"] = slug
			}
			out, err := a.call(cmd.Context(), false, "CreateContent", req)
			if err != nil {
				return err
			}
			a.printJSON(out["item"])
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&title, "title", "t", "", "title")
	f.StringVar(&slug, "slug", "", "slug (derived from title when empty)")
	f.StringVarP(&body, "content", "c", "", "body")
	f.StringVarP(&bodyFile, "file", "f", "", "read body from file")
	f.StringVar(&excerpt, "excerpt", "", "excerpt")
	f.StringVar(&cover, "cover", "", "cover image URL")
	f.StringVar(&category, "category", "", "category")
	f.StringVar(&statusF, "status", "draft", "draft|published|archived")
	f.StringSliceVar(&tags, "tags", nil, "comma separated tags")
	return c
}

func transitionCmd(a *app, use, method, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.call(cmd.Context(), false, method, map[string]any{"id": args[0]})
			if err != nil {
				return err
			}
			a.printJSON(out["item"])
			return nil
		},
	}
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.call(cmd.Context(), false, "DeleteContent", map[string]any{"id": args[0]}); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "deleted")
			return nil
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Dashboard counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "Stats", nil)
			if err != nil {
				return err
			}
			a.printJSON(out)
			return nil
		},
	}
}

func notificationsCmd(a *app) *cobra.Command {
	var dismiss string
	c := &cobra.Command{
		Use:   "notifications",
		Short: "List or dismiss active notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dismiss != "" {
				if _, err := a.call(cmd.Context(), false, "DismissNotification", map[string]any{"id": dismiss}); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "ok")
				return nil
			}
			out, err := a.call(cmd.Context(), false, "ListNotifications", nil)
			if err != nil {
				return err
			}
			a.printJSON(out["notifications"])
			return nil
		},
	}
	c.Flags().StringVar(&dismiss, "dismiss", "", "notification id to dismiss")
	return c
}

// ---- users ----

func usersCmd(a *app) *cobra.Command {
	c := &cobra.Command{Use: "users", Short: "Manage console accounts"}
	c.AddCommand(usersListCmd(a), usersAddCmd(a),
		userActionCmd(a, "toggle", "ToggleUserStatus", "Activate or deactivate an account"),
		usersRoleCmd(a), usersRmCmd(a))
	return c
}

func usersListCmd(a *app) *cobra.Command {
	var search, role, statusF string
	c := &cobra.Command{
		Use:   "list",
		Short: "List accounts, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "ListUsers",
				map[string]any{"search": search, "role": role, "status": statusF})
			if err != nil {
				return err
			}
			a.printJSON(out["users"])
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&search, "search", "s", "", "match name or email")
	f.StringVar(&role, "role", "all", "admin|editor|viewer|all")
	f.StringVar(&statusF, "status", "all", "active|inactive|all")
	return c
}

func usersAddCmd(a *app) *cobra.Command {
	var name, email, role, password string
	c := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "AddUser",
				map[string]any{"name": name, "email": email, "role": role, "password": password})
			if err != nil {
				return err
			}
			a.printJSON(out["user"])
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&name, "name", "n", "", "display name")
	f.StringVarP(&email, "email", "e", "", "email")
	f.StringVar(&role, "role", "viewer", "admin|editor|viewer")
	f.StringVarP(&password, "password", "p", "", "initial password (optional)")
	return c
}

func userActionCmd(a *app, use, method, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.call(cmd.Context(), false, method, map[string]any{"id": args[0]})
			if err != nil {
				return err
			}
			a.printJSON(out["user"])
			return nil
		},
	}
}

func usersRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "role <id> <admin|editor|viewer>",
		Short: "Change the role of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.call(cmd.Context(), false, "SetUserRole", map[string]any{"id": args[0], "role": args[1]})
			if err != nil {
				return err
			}
			a.printJSON(out["user"])
			return nil
		},
	}
}

func usersRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.call(cmd.Context(), false, "DeleteUser", map[string]any{"id": args[0]}); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "deleted")
			return nil
		},
	}
}

// ---- profile ----

func profileCmd(a *app) *cobra.Command {
	var name, email, avatar string
	c := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "UpdateProfile",
				map[string]any{"name": name, "email": email, "avatar": avatar})
			if err != nil {
				return err
			}
			a.printJSON(out["user"])
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&name, "name", "n", "", "display name")
	f.StringVarP(&email, "email", "e", "", "email")
	f.StringVar(&avatar, "avatar", "", "avatar URL (unchanged when empty)")
	return c
}

func passwdCmd(a *app) *cobra.Command {
	var current, next, confirm string
	c := &cobra.Command{
		Use:   "passwd",
		Short: "Change the password of the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := map[string]any{"currentPassword": current, "newPassword": next}
			if confirm != "" {
				req["confirmPassword"] = confirm
			}
			if _, err := a.call(cmd.Context(), false, "ChangePassword", req); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&current, "current", "", "current password")
	f.StringVar(&next, "new", "", "new password")
	f.StringVar(&confirm, "confirm", "", "repeat the new password")
	return c
}

// ---- media ----

func mediaCmd(a *app) *cobra.Command {
	c := &cobra.Command{Use: "media", Short: "Manage the media library"}
	c.AddCommand(mediaListCmd(a), mediaUploadCmd(a), mediaRmCmd(a))
	return c
}

func mediaListCmd(a *app) *cobra.Command {
	var search, typ string
	c := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "ListMedia", map[string]any{"search": search, "type": typ})
			if err != nil {
				return err
			}
			a.printJSON(out["media"])
			return nil
		},
	}
	c.Flags().StringVarP(&search, "search", "s", "", "match name")
	c.Flags().StringVar(&typ, "type", "all", "image|video|document|all")
	return c
}

func mediaUploadCmd(a *app) *cobra.Command {
	var name, typ, dimensions string
	var size int64
	c := &cobra.Command{
		Use:   "upload <url>",
		Short: "Record an uploaded asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = path.Base(args[0])
			}
			out, err := a.call(cmd.Context(), false, "UploadMedia", map[string]any{
				"name": name, "type": typ, "url": args[0], "size": size, "dimensions": dimensions,
			})
			if err != nil {
				return err
			}
			a.printJSON(out["media"])
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&name, "name", "n", "", "file name (last URL segment when empty)")
	f.StringVar(&typ, "type", "image", "image|video|document")
	f.Int64Var(&size, "size", 0, "size in bytes")
	f.StringVar(&dimensions, "dimensions", "", "WxH for images and video")
	return c
}

func mediaRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete one or more assets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]any, len(args))
			for i, id := range args {
				ids[i] = id
			}
			out, err := a.call(cmd.Context(), false, "DeleteMedia", map[string]any{"ids": ids})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %v\n", out["deleted"])
			return nil
		},
	}
}

// ---- settings ----

func settingsCmd(a *app) *cobra.Command {
	c := &cobra.Command{Use: "settings", Short: "Show or change site settings"}
	c.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show every settings tab",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.call(cmd.Context(), false, "GetSettings", nil)
			if err != nil {
				return err
			}
			a.printJSON(out)
			return nil
		},
	}, &cobra.Command{
		Use:   "set <tab.key=value>...",
		Short: "Change settings, e.g. general.siteName=Docs system.cacheDuration=60",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := settingsRequest(args)
			if err != nil {
				return err
			}
			out, err := a.call(cmd.Context(), false, "UpdateSettings", req)
			if err != nil {
				return err
			}
			a.printJSON(out)
			return nil
		},
	})
	return c
}

// settingsRequest groups tab.key=value pairs by tab. Booleans and whole
// numbers are sent typed, anything else as a string.
func settingsRequest(pairs []string) (map[string]any, error) {
	req := map[string]any{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		tab, key, dotted := strings.Cut(k, ".")
		if !ok || !dotted || tab == "" || key == "" {
			return nil, fmt.Errorf("bad setting %q, want tab.key=value", p)
		}
		m, _ := req[tab].(map[string]any)
		if m == nil {
			m = map[string]any{}
			req[tab] = m
		}
		m[key] = settingValue(v)
	}
	return req, nil
}

func settingValue(v string) any {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return v
}
