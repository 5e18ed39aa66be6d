package services

import (
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"echoboard/internal/models"

	"gorm.io/gorm"
)

// MentionService scans comment text for @name tokens against the workspace
// roster and records notification rows for the matched members. Resolution is
// fire-and-forget relative to comment creation: a malformed roster or a
// failed insert is logged, never surfaced.
type MentionService struct {
	db       *gorm.DB
	policy   *PolicyService
	notifier *NotifierService
}

func NewMentionService(db *gorm.DB) *MentionService {
	return &MentionService{
		db:       db,
		policy:   NewPolicyService(db),
		notifier: NewNotifierService(db),
	}
}

// Resolve finds the roster members mentioned in content. Longest names win
// ("@Jane Doe" resolves to Jane Doe, never Jane) and duplicate mentions of
// the same member collapse to one entry.
func (s *MentionService) Resolve(content string, members []models.User) []models.User {
	if content == "" || len(members) == 0 {
		return nil
	}

	byName := make(map[string]models.User, len(members))
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.Username == "" {
			continue
		}
		key := strings.ToLower(m.Username)
		if _, dup := byName[key]; dup {
			continue // first roster entry wins for shared display names
		}
		byName[key] = m
		names = append(names, m.Username)
	}
	if len(names) == 0 {
		return nil
	}

	pattern, err := buildMentionPattern(names)
	if err != nil {
		log.Printf("Failed to build mention pattern: %v", err)
		return nil
	}

	seen := make(map[uint]bool)
	var resolved []models.User
	for _, match := range pattern.FindAllStringSubmatch(content, -1) {
		member, ok := byName[strings.ToLower(match[1])]
		if !ok || seen[member.ID] {
			continue
		}
		seen[member.ID] = true
		resolved = append(resolved, member)
	}
	return resolved
}

// buildMentionPattern compiles one case-insensitive alternation over the
// roster, longest names first so the scanner prefers greedy matches. The
// token must sit at a word boundary: "foo@bar" is an email-ish string, not a
// mention. The trailing boundary is attached per name: \b after a name that
// ends in a non-word rune (say "neo.") can never match, so such names carry
// no tail assertion at all.
func buildMentionPattern(names []string) (*regexp.Regexp, error) {
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
		if endsInWordRune(name) {
			quoted[i] += `\b`
		}
	}
	return regexp.Compile(`(?i)(?:^|[^\w])@(` + strings.Join(quoted, "|") + `)`)
}

func endsInWordRune(name string) bool {
	runes := []rune(name)
	if len(runes) == 0 {
		return false
	}
	r := runes[len(runes)-1]
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ProcessComment resolves and persists mentions for a freshly created
// comment. Only called for authenticated authors; anonymous identities cannot
// mention.
func (s *MentionService) ProcessComment(commentID uint, authorID uint) {
	var comment models.Comment
	if err := s.db.Preload("Item.Board").First(&comment, commentID).Error; err != nil {
		log.Printf("Mention resolution: comment %d load failed: %v", commentID, err)
		return
	}

	members, err := s.policy.ActiveMembers(comment.Item.Board.WorkspaceID)
	if err != nil {
		log.Printf("Mention resolution: roster load failed: %v", err)
		return
	}

	resolved := s.Resolve(comment.Content, members)
	if len(resolved) == 0 {
		return
	}

	matchedNames := make([]interface{}, 0, len(resolved))
	for _, member := range resolved {
		if member.ID == authorID {
			matchedNames = append(matchedNames, member.Username)
			continue // record the token, skip self-notification
		}
		mention := models.Mention{
			CommentID:       comment.ID,
			MentionedUserID: member.ID,
			MentionedByID:   authorID,
		}
		if err := s.db.Create(&mention).Error; err != nil {
			log.Printf("Mention persist failed for user %d: %v", member.ID, err)
			continue
		}
		matchedNames = append(matchedNames, member.Username)

		s.notifier.NotifyAsync(member.ID, &authorID, models.NotificationTypeMention,
			fmt.Sprintf("mentioned you in a comment on item %s", comment.Item.Pid))
	}

	if len(matchedNames) == 0 {
		return
	}
	metadata := comment.Metadata
	if metadata == nil {
		metadata = models.JSONB{}
	}
	metadata["mentions"] = matchedNames
	if err := s.db.Model(&comment).UpdateColumn("metadata", metadata).Error; err != nil {
		log.Printf("Mention metadata update failed for comment %d: %v", comment.ID, err)
	}
}
