package main

import (
	"fmt"
	"time"

	"github.com/giftem/giftem/internal/api"
)

// printer renders responses either as indented JSON or as plain text lines.
type printer struct {
	json bool
}

func (p *printer) status(r *api.StatusResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	fmt.Printf("Profile:       %s\n", r.Profile)
	fmt.Printf("State:         %s\n", r.State)
	fmt.Printf("Uptime:        %s\n", (time.Duration(r.UptimeMs) * time.Millisecond).Round(time.Second))
	fmt.Printf("Signed in as:  @%s\n", r.CurrentUser.Username)
	fmt.Printf("Conversations: %d (%d unread)\n", r.Conversations, r.UnreadMessages)
	fmt.Printf("Notifications: %d unread\n", r.UnreadNotifications)
	fmt.Printf("Cart:          %d items, %s\n", r.CartItems, money(r.CartTotalCents))
}

func (p *printer) users(r *api.UsersResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, u := range r.Users {
		badge := ""
		if u.Verified {
			badge = " ✓"
		}
		fmt.Printf("@%-12s %-20s %6d followers%s\n", u.Username, u.DisplayName, u.Followers, badge)
	}
}

func (p *printer) follow(r *api.FollowResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	if !r.Followed {
		fmt.Printf("Not followed: @%s\n", r.User.Username)
		return
	}
	fmt.Printf("Following @%s (%d followers)\n", r.User.Username, r.User.Followers)
}

func (p *printer) products(r *api.ProductsResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, pr := range r.Products {
		stock := ""
		if !pr.InStock {
			stock = "  (sold out)"
		}
		fmt.Printf("%-18s %-32s %-12s %10s%s\n", pr.ID, pr.Name, pr.Category, money(pr.PriceCents), stock)
	}
}

func (p *printer) chats(r *api.ListConversationsResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	if len(r.Conversations) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, c := range r.Conversations {
		preview := ""
		if c.LastMessage != nil {
			preview = c.LastMessage.Text
		}
		unread := ""
		if c.UnreadCount > 0 {
			unread = fmt.Sprintf(" [%d]", c.UnreadCount)
		}
		fmt.Printf("%s  @%-12s%s %s\n", c.ID, c.With.Username, unread, preview)
	}
	fmt.Printf("\n%d unread\n", r.UnreadTotal)
}

func (p *printer) messages(conv api.ConversationView, r *api.GetMessagesResponse) {
	if p.json {
		outputJSON(struct {
			Conversation api.ConversationView `json:"conversation"`
			*api.GetMessagesResponse
		}{conv, r})
		return
	}
	fmt.Printf("Conversation %s with @%s\n", conv.ID, conv.With.Username)
	for _, m := range r.Messages {
		who := "@" + conv.With.Username
		if m.SenderID != conv.With.ID {
			who = "me"
		}
		fmt.Printf("  %s %-12s %s\n", m.CreatedAt.Local().Format("Jan 02 15:04"), who, m.Text)
	}
}

func (p *printer) sent(r *api.SendMessageResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	if !r.Accepted {
		fmt.Println("Not sent.")
		return
	}
	fmt.Printf("Sent %s\n", r.Message.ID)
}

func (p *printer) notifications(r *api.NotificationsResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, n := range r.Notifications {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Printf("%s %s %-8s %s\n", mark, n.CreatedAt.Local().Format("Jan 02 15:04"), n.Kind, n.Text)
	}
	fmt.Printf("\n%d unread\n", r.Unread)
}

func (p *printer) posts(r *api.PostsResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, post := range r.Posts {
		heart := "♡"
		if post.Liked {
			heart = "♥"
		}
		fmt.Printf("%s  %s %d  💬 %d  %s\n", post.ID, heart, post.Likes, post.Comments, post.Caption)
	}
}

func (p *printer) comments(r *api.CommentsResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	if len(r.Comments) == 0 {
		fmt.Println("No comments.")
		return
	}
	for _, c := range r.Comments {
		fmt.Printf("%s  %s %-12s %s\n", c.ID, c.CreatedAt.Local().Format("Jan 02 15:04"), c.AuthorID, c.Body)
	}
}

func (p *printer) quotes(r *api.QuotesResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, q := range r.Quotes {
		fmt.Printf("%s  (%d likes)\n  %s\n", q.ID, q.Likes, q.Body)
	}
}

func (p *printer) workouts(r *api.WorkoutsResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, w := range r.Workouts {
		fmt.Printf("%s  %-10s %8s %5d kcal  %s\n", w.PerformedAt.Local().Format("Jan 02"), w.Kind, w.Duration, w.Calories, w.Notes)
	}
	s := r.Stats
	fmt.Printf("\n%d workouts, %s, %d kcal, %d-day streak\n", s.Count, s.TotalDuration, s.TotalCalories, s.StreakDays)
}

func (p *printer) cart(r *api.CartResponse) {
	if p.json {
		outputJSON(r)
		return
	}
	for _, it := range r.Items {
		fmt.Printf("%-18s %-32s x%-3d %10s\n", it.ProductID, it.Name, it.Quantity, money(it.Subtotal()))
	}
	fmt.Printf("\n%d items, total %s\n", r.Count, money(r.TotalCents))
}

func money(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
