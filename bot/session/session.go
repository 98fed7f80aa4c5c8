// Package session holds the per-conversation navigation state of the menu dialogue.
package session

import (
	"errors"
	"fmt"
)

// ErrInvariant reports a session whose dish list and list message disagree.
var ErrInvariant = errors.New("session: visible dishes and active list message must be set together")

// Ref identifies a message that was sent earlier and may be edited.
type Ref struct {
	ChatID    int64 `yaml:"chat_id" json:"chat_id"`
	MessageID int   `yaml:"message_id" json:"message_id"`
}

// Session is the navigation state of one conversation.
//
// Visible and ActiveList are either both set or both empty: the dish list
// message that an index refers to must still be the one on screen.
type Session struct {
	SelectedMenuID string   `yaml:"selected_menu_id,omitempty" json:"selected_menu_id,omitempty"`
	Visible        []string `yaml:"visible,omitempty" json:"visible,omitempty"`
	ActiveList     *Ref     `yaml:"active_list,omitempty" json:"active_list,omitempty"`
	MenuList       *Ref     `yaml:"menu_list,omitempty" json:"menu_list,omitempty"`
	MenuSubset     []string `yaml:"menu_subset,omitempty" json:"menu_subset,omitempty"`
	Page           int      `yaml:"page,omitempty" json:"page,omitempty"`
}

// Clear resets every field.
func (s *Session) Clear() {
	*s = Session{}
}

// SetMenu selects a menu. The previous dish list no longer applies.
func (s *Session) SetMenu(id string) {
	s.SelectedMenuID = id
	s.Page = 0
	s.ClearVisible()
}

// SetVisible replaces the dish list shown in message ref.
// An empty list or a nil ref clears both.
func (s *Session) SetVisible(ids []string, ref *Ref) {
	if len(ids) == 0 || ref == nil {
		s.ClearVisible()
		return
	}
	s.Visible = append([]string(nil), ids...)
	r := *ref
	s.ActiveList = &r
}

// ClearVisible drops the dish list and its message reference.
func (s *Session) ClearVisible() {
	s.Visible = nil
	s.ActiveList = nil
}

// SetMenuList records the message showing the menu list and the subset it offers.
func (s *Session) SetMenuList(ref *Ref, subset []string) {
	if ref != nil {
		r := *ref
		s.MenuList = &r
	} else {
		s.MenuList = nil
	}
	s.MenuSubset = append([]string(nil), subset...)
}

// CurrentDish returns the visible dish id at a 0-based index.
func (s Session) CurrentDish(index int) (string, bool) {
	if index < 0 || index >= len(s.Visible) {
		return "", false
	}
	return s.Visible[index], true
}

// HasVisible reports whether a dish list is on screen.
func (s Session) HasVisible() bool {
	return len(s.Visible) > 0 && s.ActiveList != nil
}

// Validate checks the visible/active-list invariant.
func (s Session) Validate() error {
	if (len(s.Visible) == 0) != (s.ActiveList == nil) {
		return fmt.Errorf("%w (visible=%d, active=%t)", ErrInvariant, len(s.Visible), s.ActiveList != nil)
	}
	return nil
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	out := s
	out.Visible = append([]string(nil), s.Visible...)
	out.MenuSubset = append([]string(nil), s.MenuSubset...)
	if s.ActiveList != nil {
		r := *s.ActiveList
		out.ActiveList = &r
	}
	if s.MenuList != nil {
		r := *s.MenuList
		out.MenuList = &r
	}
	if len(out.Visible) == 0 {
		out.Visible = nil
	}
	if len(out.MenuSubset) == 0 {
		out.MenuSubset = nil
	}
	return out
}
