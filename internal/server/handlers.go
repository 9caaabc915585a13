package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/browser-host/internal/model"
	"github.com/mj1618/browser-host/internal/output"
	"github.com/mj1618/browser-host/internal/platform"
	"go.uber.org/zap"
)

// DefaultPartition is used when a tool call names no sender.
const DefaultPartition = "default"

func resultText(v interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultText(output.YAMLString(v))
}

func resultError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// sender resolves the view a tool call acts on behalf of. An explicit view id
// wins; otherwise a background page is spawned once per partition.
// The caller must hold appMu.
func (s *Server) sender(params map[string]interface{}) (platform.ContentView, error) {
	provider := s.app.Provider()
	if id := IntParam(params, "view", 0); id != 0 {
		v, ok := provider.Views.ContentView(id)
		if !ok {
			return nil, fmt.Errorf("view %d not found", id)
		}
		return v, nil
	}

	partition := StringParam(params, "partition", DefaultPartition)
	if v, ok := s.senders[partition]; ok && v.Session() != nil {
		return v, nil
	}
	spawner, ok := provider.Views.(platform.ViewSpawner)
	if !ok {
		return nil, fmt.Errorf("no sender: pass a view id (backend cannot spawn views)")
	}
	v, err := spawner.SpawnView(platform.SpawnOptions{Type: platform.ViewBackgroundPage, Partition: partition})
	if err != nil {
		return nil, fmt.Errorf("spawn sender: %w", err)
	}
	s.log.Debug("spawned tool sender", zap.String("partition", partition), zap.Int("view", v.ID()))
	s.senders[partition] = v
	return v, nil
}

func sessionID(v platform.ContentView) string {
	if sess := v.Session(); sess != nil {
		return sess.ID()
	}
	return ""
}

func (s *Server) handleExtensionsPaths(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.appMu.Lock()
	defer s.appMu.Unlock()

	type entry struct {
		ID   string `yaml:"id"`
		Path string `yaml:"path"`
	}
	paths := s.app.Messaging().ExtensionPaths()
	entries := make([]entry, 0, len(paths))
	for id, p := range paths {
		entries = append(entries, entry{ID: id, Path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return resultText(entries), nil
}

func (s *Server) handleTabsQuery(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.appMu.Lock()
	defer s.appMu.Unlock()

	sender, err := s.sender(params)
	if err != nil {
		return resultError(err), nil
	}
	tabs := s.cache.Query(sessionID(sender), func() []model.Tab {
		return s.app.Messaging().QueryTabs(sender)
	})
	return resultText(tabs), nil
}

func (s *Server) handleTabsCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	props := model.CreateProperties{
		WindowID: IntParam(params, "window-id", 0),
		URL:      StringParam(params, "url", ""),
		Active:   BoolPtrParam(params, "active"),
	}

	s.appMu.Lock()
	defer s.appMu.Unlock()

	sender, err := s.sender(params)
	if err != nil {
		return resultError(err), nil
	}
	tab, err := s.app.Messaging().CreateTab(ctx, sender, props)
	if err != nil {
		return resultError(err), nil
	}
	s.cache.InvalidateAll()
	return resultText(tab), nil
}

func (s *Server) handleTabsInsertCSS(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	tabID := IntParam(params, "tab-id", 0)
	details := model.InjectDetails{
		Code: StringParam(params, "code", ""),
		File: StringParam(params, "file", ""),
	}
	if details.Code == "" && details.File == "" {
		return mcp.NewToolResultError("specify code or file"), nil
	}

	s.appMu.Lock()
	defer s.appMu.Unlock()

	if err := s.app.Messaging().InsertCSS(ctx, tabID, details, StringParam(params, "extension-id", "")); err != nil {
		return resultError(err), nil
	}
	return resultText(map[string]interface{}{"ok": true, "tab": tabID}), nil
}

func (s *Server) handleBadgeSetText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	extensionID := StringParam(params, "extension-id", "")
	if extensionID == "" {
		return mcp.NewToolResultError("extension-id is required"), nil
	}
	details := model.BadgeTextDetails{
		Text:  StringParam(params, "text", ""),
		TabID: IntParam(params, "tab-id", 0),
	}

	s.appMu.Lock()
	defer s.appMu.Unlock()

	if err := s.app.Messaging().SetBadgeText(ctx, extensionID, details); err != nil {
		return resultError(err), nil
	}
	return resultText(details), nil
}

func cookieDetails(params map[string]interface{}) model.CookieDetails {
	return model.CookieDetails{
		URL:            StringParam(params, "url", ""),
		Name:           StringParam(params, "name", ""),
		Value:          StringParam(params, "value", ""),
		Domain:         StringParam(params, "domain", ""),
		Path:           StringParam(params, "path", ""),
		Secure:         BoolParam(params, "secure", false),
		HTTPOnly:       BoolParam(params, "http-only", false),
		ExpirationDate: FloatParam(params, "expiration-date", 0),
		SameSite:       StringParam(params, "same-site", ""),
	}
}

func (s *Server) handleCookiesGetAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.appMu.Lock()
	defer s.appMu.Unlock()

	sender, err := s.sender(params)
	if err != nil {
		return resultError(err), nil
	}
	cookies, err := s.app.Messaging().GetAllCookies(ctx, sender, cookieDetails(params))
	if err != nil {
		return resultError(err), nil
	}
	return resultText(cookies), nil
}

func (s *Server) handleCookiesRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.appMu.Lock()
	defer s.appMu.Unlock()

	sender, err := s.sender(params)
	if err != nil {
		return resultError(err), nil
	}
	d := cookieDetails(params)
	cookie, err := s.app.Messaging().RemoveCookie(ctx, sender, model.CookieDetails{URL: d.URL, Name: d.Name})
	if err != nil {
		return resultError(err), nil
	}
	return resultText(cookie), nil
}

func (s *Server) handleCookiesSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.appMu.Lock()
	defer s.appMu.Unlock()

	sender, err := s.sender(params)
	if err != nil {
		return resultError(err), nil
	}
	cookie, err := s.app.Messaging().SetCookie(ctx, sender, cookieDetails(params))
	if err != nil {
		return resultError(err), nil
	}
	return resultText(cookie), nil
}

func (s *Server) handleWindowsList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.appMu.Lock()
	defer s.appMu.Unlock()

	windows := []model.Window{}
	for _, w := range s.app.AppWindows() {
		windows = append(windows, w.Info())
	}
	return resultText(windows), nil
}

func (s *Server) handleWindowOpen(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	s.appMu.Lock()
	defer s.appMu.Unlock()

	w, err := s.app.NewWindow(BoolParam(params, "incognito", false))
	if err != nil {
		return resultError(err), nil
	}
	s.cache.InvalidateAll()
	return resultText(w.Info()), nil
}

func (s *Server) handleWindowClose(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	id := IntParam(params, "window-id", 0)

	s.appMu.Lock()
	defer s.appMu.Unlock()

	w, ok := s.app.Window(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("window %d not found", id)), nil
	}
	w.Close()
	s.cache.InvalidateAll()
	return resultText(map[string]interface{}{"ok": true, "closed": id}), nil
}
