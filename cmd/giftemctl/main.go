package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/giftem/giftem/internal/api"
	"github.com/giftem/giftem/internal/client"
	"github.com/giftem/giftem/internal/config"
	"github.com/giftem/giftem/internal/feed"
	"github.com/giftem/giftem/internal/profile"
	"github.com/giftem/giftem/internal/workout"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fatalf("load config: %v", err)
	}
	profileName := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(profileName); err != nil {
		fatalf("%v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c, err := client.New(profile.SocketPath(profileName))
	if err != nil {
		fatalf("cannot connect to daemon for profile %q: %v", profileName, err)
	}
	defer func() { _ = c.Close() }()

	if args[0] == "watch" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		cmdWatch(ctx, c, args[1:], *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := &printer{json: *jsonFlag}
	switch args[0] {
	case "status":
		out.status(must(c.Status(ctx)))
	case "users":
		out.users(must(c.ListUsers(ctx, strings.Join(args[1:], " "))))
	case "follow":
		need(args, 2, "follow <username>")
		out.follow(must(c.Follow(ctx, args[1])))
	case "qr":
		cmdQR(ctx, c, args[1:], out)
	case "products":
		fs := flag.NewFlagSet("products", flag.ExitOnError)
		category := fs.String("category", "", "only list this category")
		seller := fs.String("seller", "", "only list this seller's products")
		_ = fs.Parse(args[1:])
		if *seller != "" {
			out.products(must(c.ProductsBy(ctx, *seller)))
			return
		}
		out.products(must(c.SearchProducts(ctx, strings.Join(fs.Args(), " "), *category)))
	case "categories":
		resp := must(c.Categories(ctx))
		if out.json {
			outputJSON(resp)
			return
		}
		fmt.Println(strings.Join(resp.Categories, "\n"))
	case "chats":
		out.chats(must(c.ListConversations(ctx)))
	case "open":
		need(args, 2, "open <username>")
		resp := must(c.OpenConversation(ctx, args[1]))
		out.messages(resp.Conversation, must(c.GetMessages(ctx, resp.Conversation.ID)))
	case "send":
		need(args, 3, "send <conversation-id> <text>")
		out.sent(must(c.SendMessage(ctx, args[1], strings.Join(args[2:], " "))))
	case "read":
		need(args, 2, "read <conversation-id>")
		check(c.MarkRead(ctx, args[1]))
	case "rm":
		need(args, 2, "rm <conversation-id>")
		check(c.DeleteConversation(ctx, args[1]))
	case "unread":
		n := must(c.UnreadCount(ctx))
		if out.json {
			outputJSON(api.UnreadCountResponse{Count: n})
			return
		}
		fmt.Println(n)
	case "notifications":
		if len(args) >= 2 && args[1] == "read" {
			need(args, 3, "notifications read <id>")
			out.notifications(must(c.MarkNotificationRead(ctx, args[2])))
			return
		}
		fs := flag.NewFlagSet("notifications", flag.ExitOnError)
		markRead := fs.Bool("mark-read", false, "mark everything read after listing")
		_ = fs.Parse(args[1:])
		out.notifications(must(c.Notifications(ctx, *markRead)))
	case "feed":
		if len(args) >= 2 {
			out.posts(must(c.PostsBy(ctx, args[1])))
			return
		}
		out.posts(must(c.ListPosts(ctx)))
	case "post":
		fs := flag.NewFlagSet("post", flag.ExitOnError)
		product := fs.String("product", "", "tag a catalog product")
		_ = fs.Parse(args[1:])
		if fs.NArg() == 0 {
			usage("post [--product id] <caption>")
		}
		resp := must(c.AddPost(ctx, strings.Join(fs.Args(), " "), *product))
		out.posts(&api.PostsResponse{Posts: []feed.Post{resp.Post}})
	case "rm-post":
		need(args, 2, "rm-post <post-id>")
		check(c.DeletePost(ctx, args[1]))
	case "comments":
		need(args, 2, "comments <post-id>")
		out.comments(must(c.ListComments(ctx, args[1])))
	case "rm-comment":
		need(args, 2, "rm-comment <comment-id>")
		check(c.DeleteComment(ctx, args[1]))
	case "like":
		need(args, 2, "like <post-id>")
		resp := must(c.LikePost(ctx, args[1]))
		out.posts(&api.PostsResponse{Posts: []feed.Post{resp.Post}})
	case "comment":
		need(args, 3, "comment <post-id> <text>")
		resp := must(c.AddComment(ctx, args[1], strings.Join(args[2:], " ")))
		if out.json {
			outputJSON(resp)
			return
		}
		fmt.Println(resp.Comment.ID)
	case "quotes":
		out.quotes(must(c.ListQuotes(ctx)))
	case "quote":
		cmdQuote(ctx, c, args[1:], out)
	case "workouts":
		out.workouts(must(c.Workouts(ctx)))
	case "workout":
		cmdWorkout(ctx, c, args[1:], out)
	case "cart":
		cmdCart(ctx, c, args[1:], out)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: giftemctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                      Show daemon status")
	fmt.Fprintln(os.Stderr, "  users [query]               List or search users")
	fmt.Fprintln(os.Stderr, "  follow <username>           Follow a user")
	fmt.Fprintln(os.Stderr, "  qr [username] [-o file.png] Profile link and QR code")
	fmt.Fprintln(os.Stderr, "  products [--category c] [--seller u] [q]")
	fmt.Fprintln(os.Stderr, "  categories                  List product categories")
	fmt.Fprintln(os.Stderr, "  chats                       List conversations")
	fmt.Fprintln(os.Stderr, "  open <username>             Open (or create) a conversation")
	fmt.Fprintln(os.Stderr, "  send <id> <text>            Send a message")
	fmt.Fprintln(os.Stderr, "  read <id>                   Mark a conversation read")
	fmt.Fprintln(os.Stderr, "  rm <id>                     Delete a conversation")
	fmt.Fprintln(os.Stderr, "  unread                      Total unread messages")
	fmt.Fprintln(os.Stderr, "  watch [prefix]              Stream daemon events")
	fmt.Fprintln(os.Stderr, "  notifications [--mark-read] | notifications read <id>")
	fmt.Fprintln(os.Stderr, "  feed [username] | post [--product id] <caption> | rm-post <id>")
	fmt.Fprintln(os.Stderr, "  like <id> | comments <id> | comment <id> <text> | rm-comment <id>")
	fmt.Fprintln(os.Stderr, "  quotes | quote <markdown> | quote show|like|rm <id>")
	fmt.Fprintln(os.Stderr, "  workouts | workout add <kind> <duration> [kcal] [notes] | workout rm <id>")
	fmt.Fprintln(os.Stderr, "  cart [add <id> [qty] | set <id> <qty> | rm <id> | clear]")
}

func cmdWatch(ctx context.Context, c *client.Client, args []string, jsonOut bool) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	err := c.WatchEvents(ctx, prefix, func(env api.EventEnvelope) error {
		if jsonOut {
			outputJSON(env)
			return nil
		}
		payload, _ := json.Marshal(env.Payload)
		fmt.Printf("%s  %-22s %s\n", env.OccurredAt.Format(time.TimeOnly), env.Kind, payload)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fatalf("%v", err)
	}
}

func cmdQR(ctx context.Context, c *client.Client, args []string, out *printer) {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	file := fs.String("o", "", "write the PNG to this file")
	size := fs.Int("size", 256, "image size in pixels")
	_ = fs.Parse(args)
	resp := must(c.ProfileQR(ctx, fs.Arg(0), *size))
	if *file != "" {
		if err := os.WriteFile(*file, resp.PNG, 0o644); err != nil {
			fatalf("write %s: %v", *file, err)
		}
	}
	if out.json {
		outputJSON(resp)
		return
	}
	fmt.Println(resp.Link)
	if *file != "" {
		fmt.Printf("QR code written to %s\n", *file)
	}
}

func cmdQuote(ctx context.Context, c *client.Client, args []string, out *printer) {
	need(args, 1, "quote <markdown> | quote show|like|rm <id>")
	single := func(resp *api.QuoteResponse) {
		out.quotes(&api.QuotesResponse{Quotes: []api.QuoteView{resp.Quote}})
	}
	if len(args) == 2 {
		switch args[0] {
		case "show":
			resp := must(c.GetQuote(ctx, args[1]))
			if out.json {
				outputJSON(resp)
				return
			}
			fmt.Print(resp.Quote.HTML)
			return
		case "like":
			single(must(c.LikeQuote(ctx, args[1])))
			return
		case "rm":
			check(c.DeleteQuote(ctx, args[1]))
			return
		}
	}
	single(must(c.PostQuote(ctx, strings.Join(args, " "))))
}

func cmdWorkout(ctx context.Context, c *client.Client, args []string, out *printer) {
	need(args, 1, "workout add|rm ...")
	switch args[0] {
	case "add":
		if len(args) < 3 {
			usage("workout add <kind> <duration> [kcal] [notes]")
		}
		req := api.AddWorkoutRequest{Kind: args[1], Duration: args[2]}
		if len(args) >= 4 {
			req.Calories = atoi(args[3], "calories")
		}
		if len(args) >= 5 {
			req.Notes = strings.Join(args[4:], " ")
		}
		resp := must(c.AddWorkout(ctx, req))
		out.workouts(&api.WorkoutsResponse{Workouts: []workout.Workout{resp.Workout}, Stats: resp.Stats})
	case "rm":
		if len(args) < 2 {
			usage("workout rm <id>")
		}
		out.workouts(must(c.DeleteWorkout(ctx, args[1])))
	default:
		fatalf("unknown workout command %q", args[0])
	}
}

func cmdCart(ctx context.Context, c *client.Client, args []string, out *printer) {
	if len(args) == 0 {
		out.cart(must(c.GetCart(ctx)))
		return
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			usage("cart add <product-id> [qty]")
		}
		qty := 1
		if len(args) >= 3 {
			qty = atoi(args[2], "quantity")
		}
		out.cart(must(c.AddToCart(ctx, args[1], qty)))
	case "set":
		if len(args) < 3 {
			usage("cart set <product-id> <qty>")
		}
		out.cart(must(c.UpdateCartQuantity(ctx, args[1], atoi(args[2], "quantity"))))
	case "rm":
		if len(args) < 2 {
			usage("cart rm <product-id>")
		}
		out.cart(must(c.RemoveFromCart(ctx, args[1])))
	case "clear":
		out.cart(must(c.ClearCart(ctx)))
	default:
		fatalf("unknown cart command %q", args[0])
	}
}

func atoi(s, what string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fatalf("invalid %s %q", what, s)
	}
	return n
}

func need(args []string, n int, syntax string) {
	if len(args) < n {
		usage(syntax)
	}
}

func usage(syntax string) {
	fmt.Fprintf(os.Stderr, "usage: giftemctl %s\n", syntax)
	os.Exit(1)
}

func must[T any](v T, err error) T {
	check(err)
	return v
}

func check(err error) {
	if err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
