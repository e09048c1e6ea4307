package customizer

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultNotificationDelay is how long the cart notification stays visible
const DefaultNotificationDelay = 3 * time.Second

// State is the lifecycle of the customizer on a page
type State int

const (
	StateIdle State = iota
	StateScriptLoading
	StateReady
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScriptLoading:
		return "script-loading"
	case StateReady:
		return "ready"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EmbedMode is how the customizer UI is embedded
type EmbedMode string

const (
	// EmbedIframe points an iframe at the customizer; no script to load
	EmbedIframe EmbedMode = "iframe"
	// EmbedScript needs the vendor script before the UI can open
	EmbedScript EmbedMode = "script"
)

var (
	ErrNoProduct         = stderrors.New("no product on page")
	ErrInvalidTransition = stderrors.New("invalid customizer state transition")
)

// EventKind is a window event the bootstrap listens to
type EventKind string

const (
	EventMessage EventKind = "message"
	EventKeydown EventKind = "keydown"
)

// Event is a window event; Data is set for messages and Key for keydown
type Event struct {
	Kind EventKind
	Data []byte
	Key  string
}

// ListenerID identifies a registered listener
type ListenerID int

// Notification is the transient on-page cart notice
type Notification struct {
	Text    string
	Success bool
}

// Window is the host page as seen by the bootstrap
type Window interface {
	AddEventListener(kind EventKind, fn func(Event)) ListenerID
	RemoveEventListener(id ListenerID)
	// PostToFrame sends a message into the embedded customizer
	PostToFrame(data []byte) error
	ShowModal(iframeURL string)
	RemoveModal()
	ShowNotification(n Notification)
	HideNotification()
}

// ScriptLoader loads the vendor script for EmbedScript
type ScriptLoader interface {
	LoadScript(ctx context.Context) error
}

// Options configures a Bootstrap
type Options struct {
	Embed             EmbedMode
	Scripts           ScriptLoader
	CartID            string
	Currency          string
	Locale            string
	PortalURL         string
	TenantID          string
	NotificationDelay time.Duration
	// ResolveURL returns the iframe URL; nil builds the portal URL
	ResolveURL func(ctx context.Context, c Context) string
}

// Bootstrap drives the customizer on one page
type Bootstrap struct {
	win      Window
	products ProductSource
	relay    CartRelay
	opts     Options
	logger   *zap.Logger

	mu          sync.Mutex
	state       State
	page        Context
	origin      Origin
	product     *ProductInfo
	listeners   []ListenerID
	openCtx     context.Context
	notifyTimer *time.Timer
}

// New creates an idle bootstrap
func New(win Window, products ProductSource, relay CartRelay, opts Options, logger *zap.Logger) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Embed == "" {
		opts.Embed = EmbedIframe
	}
	if opts.NotificationDelay <= 0 {
		opts.NotificationDelay = DefaultNotificationDelay
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	return &Bootstrap{
		win:      win,
		products: products,
		relay:    relay,
		opts:     opts,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the current state
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Context returns the resolved product context
func (b *Bootstrap) Context() (Context, Origin) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page, b.origin
}

// Start resolves the product on the page, loads the vendor script when
// needed and fetches product info. A deep link opens the customizer.
func (b *Bootstrap) Start(ctx context.Context, page PageSource) error {
	b.mu.Lock()
	if b.state != StateIdle {
		b.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, b.state)
	}
	c, origin, ok := ResolveContext(page)
	if !ok {
		b.mu.Unlock()
		b.logger.Warn("Customizer: product id not found on page")
		return ErrNoProduct
	}
	b.page, b.origin = c, origin

	if b.opts.Embed == EmbedScript {
		b.state = StateScriptLoading
		b.mu.Unlock()

		var err error
		if b.opts.Scripts == nil {
			err = stderrors.New("script embed without a script loader")
		} else {
			err = b.opts.Scripts.LoadScript(ctx)
		}

		b.mu.Lock()
		if err != nil {
			b.state = StateIdle
			b.mu.Unlock()
			b.logger.Error("Customizer: failed to load script", zap.Error(err))
			return err
		}
	}
	b.state = StateReady
	b.mu.Unlock()

	b.fetchProduct(ctx, c)

	if origin.DeepLink() {
		return b.Open(ctx)
	}
	return nil
}

func (b *Bootstrap) fetchProduct(ctx context.Context, c Context) {
	if b.products == nil {
		return
	}
	info, err := b.products.ProductInfo(ctx, c.ProductID, c.VariantID)
	if err != nil {
		b.logger.Warn("Customizer: product info unavailable", zap.String("product_id", c.ProductID), zap.Error(err))
		return
	}
	b.mu.Lock()
	b.product = &info
	b.mu.Unlock()
}

// Open shows the customizer and registers the message and Escape listeners
func (b *Bootstrap) Open(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateReady && b.state != StateClosed {
		defer b.mu.Unlock()
		return fmt.Errorf("%w: open from %s", ErrInvalidTransition, b.state)
	}
	c := b.page
	b.mu.Unlock()

	iframeURL := b.iframeURL(ctx, c)

	b.mu.Lock()
	if b.state != StateReady && b.state != StateClosed {
		defer b.mu.Unlock()
		return fmt.Errorf("%w: open from %s", ErrInvalidTransition, b.state)
	}
	b.state = StateOpen
	b.openCtx = context.WithoutCancel(ctx)
	b.listeners = []ListenerID{
		b.win.AddEventListener(EventMessage, b.onMessage),
		b.win.AddEventListener(EventKeydown, b.onKeydown),
	}
	b.mu.Unlock()

	b.win.ShowModal(iframeURL)
	b.logger.Info("Customizer opened", zap.String("product_id", c.ProductID), zap.String("url", iframeURL))
	return nil
}

func (b *Bootstrap) iframeURL(ctx context.Context, c Context) string {
	if b.opts.ResolveURL != nil {
		if u := b.opts.ResolveURL(ctx, c); u != "" {
			return u
		}
	}
	return IframeURL(b.opts.PortalURL, b.opts.TenantID, c)
}

// Close closes the customizer from the close control or an overlay click.
// It is a no-op unless the customizer is open.
func (b *Bootstrap) Close() {
	b.closeWith("control")
}

func (b *Bootstrap) closeWith(reason string) {
	b.mu.Lock()
	if b.state != StateOpen {
		b.mu.Unlock()
		return
	}
	b.state = StateClosed
	ids := b.listeners
	b.listeners = nil
	b.mu.Unlock()

	for _, id := range ids {
		b.win.RemoveEventListener(id)
	}
	b.win.RemoveModal()
	b.logger.Info("Customizer closed", zap.String("reason", reason))
}

// Stop cancels a pending notification dismissal
func (b *Bootstrap) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notifyTimer != nil {
		b.notifyTimer.Stop()
		b.notifyTimer = nil
	}
}

func (b *Bootstrap) onKeydown(ev Event) {
	if ev.Key == "Escape" {
		b.closeWith("escape")
	}
}

func (b *Bootstrap) onMessage(ev Event) {
	b.mu.Lock()
	open := b.state == StateOpen
	ctx := b.openCtx
	b.mu.Unlock()
	if !open {
		return
	}

	msg, ok := DecodeMessage(ev.Data)
	if !ok {
		return
	}
	b.dispatch(ctx, msg)
}

func (b *Bootstrap) dispatch(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case FrameReady:
		b.sendInit()
	case CustomizationComplete:
		b.logger.Info("Customization complete", zap.String("customization_id", m.CustomizationID))
	case AddToCart:
		b.addToCart(ctx, m)
	case FrameError:
		b.logger.Error("Customizer reported an error", zap.String("message", m.Message), zap.String("code", m.Code))
		b.notify(Notification{Text: "Customizer error: " + m.Message})
	case Close:
		b.closeWith("message")
	}
}

func (b *Bootstrap) sendInit() {
	b.mu.Lock()
	c := b.page
	currency := b.opts.Currency
	if b.product != nil && b.product.Currency != "" {
		currency = b.product.Currency
	}
	b.mu.Unlock()

	b.post(Init{
		ProductID: c.ProductID,
		VariantID: c.VariantID,
		Quantity:  c.Quantity,
		Currency:  currency,
		Locale:    b.opts.Locale,
	})
}

func (b *Bootstrap) addToCart(ctx context.Context, m AddToCart) {
	b.mu.Lock()
	req := CartRequest{
		CartID:            b.opts.CartID,
		CustomizationID:   m.CustomizationID,
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		Quantity:          m.Quantity,
		PreviewImage:      m.PreviewImage,
		CustomizationData: m.CustomizationData,
	}
	if req.ProductID == "" {
		req.ProductID = b.page.ProductID
	}
	if req.VariantID == "" {
		req.VariantID = b.page.VariantID
	}
	switch {
	case m.Price != nil:
		req.Price = *m.Price
	case b.product != nil:
		req.Price = b.product.Price
	}
	b.mu.Unlock()
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	if b.relay == nil {
		b.reportCart(CartResult{Success: false, Error: "cart unavailable"})
		return
	}
	id, err := b.relay.AddToCart(ctx, req)
	if err != nil {
		b.logger.Error("Customizer: add to cart failed", zap.String("product_id", req.ProductID), zap.Error(err))
		b.reportCart(CartResult{Success: false, Error: err.Error()})
		return
	}
	b.reportCart(CartResult{Success: true, CartItemID: id, Message: "Product added to cart successfully"})
}

func (b *Bootstrap) reportCart(res CartResult) {
	b.post(res)
	if res.Success {
		b.notify(Notification{Text: res.Message, Success: true})
		return
	}
	b.notify(Notification{Text: "Could not add to cart: " + res.Error})
}

func (b *Bootstrap) post(m Message) {
	data, err := EncodeMessage(m)
	if err != nil {
		b.logger.Error("Customizer: failed to encode message", zap.String("type", string(m.Type())), zap.Error(err))
		return
	}
	if err := b.win.PostToFrame(data); err != nil {
		b.logger.Warn("Customizer: failed to post message", zap.String("type", string(m.Type())), zap.Error(err))
	}
}

func (b *Bootstrap) notify(n Notification) {
	b.win.ShowNotification(n)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notifyTimer != nil {
		b.notifyTimer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(b.opts.NotificationDelay, func() {
		b.mu.Lock()
		current := b.notifyTimer == timer
		if current {
			b.notifyTimer = nil
		}
		b.mu.Unlock()
		if current {
			b.win.HideNotification()
		}
	})
	b.notifyTimer = timer
}
