package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/checkout-flow/internal/cart"
	"github.com/angelmondragon/checkout-flow/internal/catalog"
	"github.com/angelmondragon/checkout-flow/internal/checkout/validation"
	"github.com/angelmondragon/checkout-flow/internal/orders"
	"github.com/angelmondragon/checkout-flow/pkg/enums"
	pkgerrors "github.com/angelmondragon/checkout-flow/pkg/errors"
	"github.com/angelmondragon/checkout-flow/pkg/logger"
	"github.com/angelmondragon/checkout-flow/pkg/metrics"
)

const (
	// SaveFailedMessage is shown when validated data could not be persisted.
	SaveFailedMessage = "We could not save your progress. Please try again."
	// MissingDeliveryMessage blocks an order without a complete delivery selection.
	MissingDeliveryMessage = "Please select a city and delivery type."

	exitLabel = "cart"
)

// Deps wires a Controller.
type Deps struct {
	Store            *cart.Store
	Catalog          catalog.Fetcher
	Orders           orders.Boundary
	InfoVerifier     StepVerifier
	DeliveryVerifier StepVerifier
	Metrics          *metrics.CheckoutMetrics
	Logger           *logger.Logger
	// ResetAfterOrder clears checkout data and returns to Information after a
	// successful order.
	ResetAfterOrder   bool
	NewIdempotencyKey func() string
	Now               func() time.Time
}

type informationState struct {
	form      validation.CustomerInfo
	errs      validation.FieldErrors
	submitErr string
	busy      bool
}

type catalogState struct {
	status enums.CatalogStatus
	err    string
	cities []catalog.City
	busy   bool
}

type deliveryState struct {
	cityID       *int
	deliveryType *enums.DeliveryType
	errs         validation.FieldErrors
	submitErr    string
	busy         bool
}

type orderState struct {
	consent     bool
	busy        bool
	err         *pkgerrors.Error
	key         string
	fingerprint string
}

// Controller drives one session through Information, Delivery and Summary. It
// keeps per-step view state in memory and writes validated data to the store.
// Long operations run without holding the lock; a per-step busy flag rejects
// duplicates while one is in flight.
type Controller struct {
	store            *cart.Store
	catalog          catalog.Fetcher
	orders           orders.Boundary
	infoVerifier     StepVerifier
	deliveryVerifier StepVerifier
	metrics          *metrics.CheckoutMetrics
	logg             *logger.Logger
	resetAfterOrder  bool
	newKey           func() string
	now              func() time.Time

	mu           sync.Mutex
	exited       bool
	info         informationState
	cat          catalogState
	delivery     deliveryState
	order        orderState
	confirmation *orders.Confirmation
}

// NewController validates deps and returns a Controller hydrated from the store.
func NewController(deps Deps) (*Controller, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog fetcher required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("order boundary required")
	}
	if deps.InfoVerifier == nil {
		return nil, fmt.Errorf("information verifier required")
	}
	if deps.DeliveryVerifier == nil {
		return nil, fmt.Errorf("delivery verifier required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.NewIdempotencyKey == nil {
		deps.NewIdempotencyKey = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	c := &Controller{
		store:            deps.Store,
		catalog:          deps.Catalog,
		orders:           deps.Orders,
		infoVerifier:     deps.InfoVerifier,
		deliveryVerifier: deps.DeliveryVerifier,
		metrics:          deps.Metrics,
		logg:             deps.Logger,
		resetAfterOrder:  deps.ResetAfterOrder,
		newKey:           deps.NewIdempotencyKey,
		now:              deps.Now,
	}
	c.cat.status = enums.CatalogStatusIdle
	c.hydrate(c.store.Snapshot())
	return c, nil
}

// Busy reports whether any operation is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anyBusyLocked()
}

// Store exposes the session's cart store for reads. Writes go through the
// Controller's cart methods.
func (c *Controller) Store() *cart.Store { return c.store }

// AddItem adds one unit of p to the cart.
func (c *Controller) AddItem(ctx context.Context, p cart.Product) error {
	return c.mutateCart("add cart item", func() error { return c.store.AddItem(ctx, p) })
}

// UpdateQuantity sets a line's quantity; below 1 removes the line.
func (c *Controller) UpdateQuantity(ctx context.Context, id, quantity int) error {
	return c.mutateCart("update cart item", func() error { return c.store.UpdateQuantity(ctx, id, quantity) })
}

// RemoveItem drops a line.
func (c *Controller) RemoveItem(ctx context.Context, id int) error {
	return c.mutateCart("remove cart item", func() error { return c.store.RemoveItem(ctx, id) })
}

// ClearCart empties the cart and keeps checkout data.
func (c *Controller) ClearCart(ctx context.Context) error {
	return c.mutateCart("clear cart", func() error { return c.store.ClearCart(ctx) })
}

// mutateCart refuses cart changes while an order is in flight, so the cart
// cleared after success is the cart that was submitted.
func (c *Controller) mutateCart(op string, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order.busy {
		return busyError("cart")
	}
	if err := fn(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	return nil
}

func (c *Controller) hydrate(st cart.State) {
	c.info = informationState{form: customerFrom(st.CheckoutData)}
	c.delivery = deliveryState{
		cityID:       copyInt(st.CheckoutData.CityID),
		deliveryType: copyType(st.CheckoutData.DeliveryType),
	}
}

// Start enters the checkout. An empty cart is refused. A signed-in user fills
// the contact fields once when they are all empty, and resuming on Delivery or
// Summary loads the catalog.
func (c *Controller) Start(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.anyBusyLocked() {
		c.mu.Unlock()
		return c.View(), busyError("checkout")
	}
	st := c.store.Snapshot()
	if len(st.Items) == 0 {
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	c.exited = false
	c.confirmation = nil
	c.order = orderState{}
	c.hydrate(st)

	c.prefillLocked(ctx, st)
	needCatalog := st.CurrentStep != enums.CheckoutStepInformation && !c.cat.busy
	c.mu.Unlock()

	c.logg.Info(ctx, "checkout started")
	if needCatalog {
		if err := c.LoadCatalog(ctx); err != nil {
			return c.View(), err
		}
	}
	return c.View(), nil
}

// SetUser records the signed-in user, or clears it when user is nil. On the
// Information step a newly known user fills empty contact fields.
func (c *Controller) SetUser(ctx context.Context, user *cart.User) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SetUser(ctx, user); err != nil {
		return c.viewLocked(), pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	if !c.info.busy && c.store.CurrentStep() == enums.CheckoutStepInformation {
		c.prefillLocked(ctx, c.store.Snapshot())
	}
	return c.viewLocked(), nil
}

func (c *Controller) prefillLocked(ctx context.Context, st cart.State) {
	if st.User == nil || !st.CheckoutData.IsContactEmpty() {
		return
	}
	// Unsaved edits count as filled.
	if c.info.form != (validation.CustomerInfo{}) {
		return
	}
	first, last := splitName(st.User.Name)
	patch := cart.CheckoutPatch{FirstName: &first, LastName: &last, Email: &st.User.Email}
	if err := c.store.UpdateCheckoutData(ctx, patch); err != nil {
		c.logg.Error(ctx, "prefill checkout data", err)
	}
	c.info.form = validation.CustomerInfo{FirstName: first, LastName: last, Email: st.User.Email}
	c.info.errs = validation.ValidateInformation(c.info.form)
}

// EditInformation updates one field of the Information draft and validates it.
func (c *Controller) EditInformation(field, value string) (View, error) {
	c.mu.Lock()
	if err := c.requireStepLocked(enums.CheckoutStepInformation); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.info.busy {
		c.mu.Unlock()
		return c.View(), busyError(enums.CheckoutStepInformation.String())
	}
	switch field {
	case validation.FieldFirstName:
		c.info.form.FirstName = value
	case validation.FieldLastName:
		c.info.form.LastName = value
	case validation.FieldEmail:
		c.info.form.Email = value
	default:
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeValidation, "unknown field").WithDetails(map[string]string{"field": field})
	}
	msg := validation.ValidateInformationField(field, value)
	if msg == "" {
		delete(c.info.errs, field)
	} else {
		if c.info.errs == nil {
			c.info.errs = validation.FieldErrors{}
		}
		c.info.errs[field] = msg
	}
	c.mu.Unlock()
	return c.View(), nil
}

// SubmitInformation validates the form, runs the server-side check and on
// success persists the contact fields and moves to Delivery. A nil form
// submits the current draft.
func (c *Controller) SubmitInformation(ctx context.Context, form *validation.CustomerInfo) (View, error) {
	c.mu.Lock()
	if err := c.requireStepLocked(enums.CheckoutStepInformation); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.info.busy {
		c.mu.Unlock()
		return c.View(), busyError(enums.CheckoutStepInformation.String())
	}
	if form != nil {
		c.info.form = *form
	}
	c.info.submitErr = ""
	c.info.errs = validation.ValidateInformation(c.info.form)
	if len(c.info.errs) > 0 {
		c.mu.Unlock()
		c.metrics.IncStepFailure(enums.CheckoutStepInformation.String(), "validation")
		return c.View(), nil
	}
	submitted := c.info.form
	c.info.busy = true
	c.mu.Unlock()

	opCtx := context.WithoutCancel(ctx)
	err := c.infoVerifier.Verify(opCtx)
	if err == nil {
		err = c.persistInformation(opCtx, submitted)
	}

	c.mu.Lock()
	c.info.busy = false
	if err != nil {
		c.info.submitErr = messageOf(err, SaveFailedMessage)
		c.mu.Unlock()
		c.metrics.IncStepFailure(enums.CheckoutStepInformation.String(), failureReason(err))
		c.logg.Warn(c.logg.WithStep(opCtx, enums.CheckoutStepInformation.String()), "step rejected: "+err.Error())
		return c.View(), nil
	}
	c.enterDeliveryLocked()
	c.mu.Unlock()

	c.metrics.ObserveTransition(enums.CheckoutStepInformation.String(), enums.CheckoutStepDelivery.String())
	if err := c.LoadCatalog(opCtx); err != nil {
		return c.View(), err
	}
	return c.View(), nil
}

func (c *Controller) persistInformation(ctx context.Context, form validation.CustomerInfo) error {
	patch := cart.CheckoutPatch{FirstName: &form.FirstName, LastName: &form.LastName, Email: &form.Email}
	if err := c.store.UpdateCheckoutData(ctx, patch); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	if err := c.store.SetCurrentStep(ctx, enums.CheckoutStepDelivery); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	return nil
}

func (c *Controller) enterDeliveryLocked() {
	data := c.store.CheckoutData()
	c.delivery = deliveryState{
		cityID:       copyInt(data.CityID),
		deliveryType: copyType(data.DeliveryType),
	}
}

// Back moves one step backwards without validation. Going back from
// Information leaves the checkout, which the view reports as Exited.
func (c *Controller) Back(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.stepBusyLocked() {
		c.mu.Unlock()
		return c.View(), busyError(c.store.CurrentStep().String())
	}
	from := c.store.CurrentStep()
	to, ok := from.Previous()
	if !ok {
		c.exited = true
		c.mu.Unlock()
		c.metrics.ObserveTransition(from.String(), exitLabel)
		return c.View(), nil
	}
	if err := c.store.SetCurrentStep(ctx, to); err != nil {
		c.mu.Unlock()
		c.logg.Error(ctx, "step back", err)
		return c.View(), pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	switch to {
	case enums.CheckoutStepInformation:
		c.info = informationState{form: customerFrom(c.store.CheckoutData())}
	case enums.CheckoutStepDelivery:
		c.order = orderState{key: c.order.key, fingerprint: c.order.fingerprint}
		c.enterDeliveryLocked()
	}
	c.mu.Unlock()

	c.metrics.ObserveTransition(from.String(), to.String())
	if to == enums.CheckoutStepDelivery {
		if err := c.LoadCatalog(ctx); err != nil {
			return c.View(), err
		}
	}
	return c.View(), nil
}

// LoadCatalog fetches the city catalog afresh. While it loads, and after it
// fails, the Delivery step cannot advance.
func (c *Controller) LoadCatalog(ctx context.Context) error {
	c.mu.Lock()
	if c.cat.busy {
		c.mu.Unlock()
		return busyError("catalog")
	}
	c.cat.busy = true
	c.cat.status = enums.CatalogStatusLoading
	c.cat.err = ""
	c.mu.Unlock()

	opCtx := context.WithoutCancel(ctx)
	cities, err := c.catalog.FetchCities(opCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cat.busy = false
	if err != nil {
		c.cat.status = enums.CatalogStatusError
		c.cat.err = messageOf(err, catalog.LoadFailureMessage)
		c.cat.cities = nil
		c.metrics.IncCatalogLoad("failure")
		c.logg.Warn(opCtx, "city catalog load failed: "+err.Error())
		return nil
	}
	c.cat.status = enums.CatalogStatusLoaded
	c.cat.cities = cities
	c.metrics.IncCatalogLoad("success")
	if len(c.delivery.errs) > 0 {
		c.revalidateDeliveryLocked()
	}
	return nil
}

// SelectCity chooses a delivery city. Choosing a different city clears the
// delivery type because availability depends on the city.
func (c *Controller) SelectCity(cityID int) (View, error) {
	c.mu.Lock()
	if err := c.requireDeliveryEditableLocked(); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.delivery.cityID != nil && *c.delivery.cityID == cityID {
		c.mu.Unlock()
		return c.View(), nil
	}
	if _, ok := catalog.Find(c.cat.cities, cityID); !ok {
		c.setDeliveryErrorLocked(validation.FieldCityID, validation.MsgCityUnavailable)
		c.mu.Unlock()
		return c.View(), nil
	}
	id := cityID
	c.delivery.cityID = &id
	c.delivery.deliveryType = nil
	c.delivery.submitErr = ""
	c.revalidateDeliveryLocked()
	c.mu.Unlock()
	return c.View(), nil
}

// SelectDeliveryType chooses the delivery speed. Types the selected city does
// not offer are rejected and leave the selection unchanged.
func (c *Controller) SelectDeliveryType(t enums.DeliveryType) (View, error) {
	c.mu.Lock()
	if err := c.requireDeliveryEditableLocked(); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.delivery.cityID == nil {
		c.setDeliveryErrorLocked(validation.FieldCityID, validation.MsgSelectCity)
		c.mu.Unlock()
		return c.View(), nil
	}
	if !t.IsValid() {
		c.setDeliveryErrorLocked(validation.FieldDeliveryType, validation.MsgSelectDeliveryType)
		c.mu.Unlock()
		return c.View(), nil
	}
	city, ok := catalog.Find(c.cat.cities, *c.delivery.cityID)
	if !ok || !city.Offers(t) {
		c.setDeliveryErrorLocked(validation.FieldDeliveryType, validation.MsgDeliveryTypeForbidden)
		c.mu.Unlock()
		return c.View(), nil
	}
	dt := t
	c.delivery.deliveryType = &dt
	c.delivery.submitErr = ""
	c.revalidateDeliveryLocked()
	c.mu.Unlock()
	return c.View(), nil
}

// CanAdvanceDelivery reports whether SubmitDelivery may proceed.
func (c *Controller) CanAdvanceDelivery() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAdvanceDeliveryLocked()
}

func (c *Controller) canAdvanceDeliveryLocked() bool {
	if c.delivery.busy || !c.cat.status.Ready() {
		return false
	}
	sel := validation.Selection{CityID: c.delivery.cityID, DeliveryType: c.delivery.deliveryType}
	return validation.ValidateDelivery(sel, c.cat.cities) == nil
}

// SubmitDelivery validates the selection against the loaded catalog, runs the
// server-side check and on success persists it and moves to Summary.
func (c *Controller) SubmitDelivery(ctx context.Context) (View, error) {
	c.mu.Lock()
	if err := c.requireStepLocked(enums.CheckoutStepDelivery); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.delivery.busy {
		c.mu.Unlock()
		return c.View(), busyError(enums.CheckoutStepDelivery.String())
	}
	if !c.cat.status.Ready() {
		c.mu.Unlock()
		return c.View(), catalogNotReady(c.cat.status)
	}
	c.delivery.submitErr = ""
	sel := validation.Selection{CityID: copyInt(c.delivery.cityID), DeliveryType: copyType(c.delivery.deliveryType)}
	if errs := validation.ValidateDelivery(sel, c.cat.cities); errs != nil {
		c.delivery.errs = errs
		switch {
		case errs[validation.FieldCityID] == validation.MsgCityUnavailable:
			c.delivery.submitErr = validation.MsgCityUnavailable
		case errs[validation.FieldDeliveryType] == validation.MsgDeliveryTypeForbidden:
			c.delivery.submitErr = validation.MsgDeliveryTypeForbidden
		}
		c.mu.Unlock()
		c.metrics.IncStepFailure(enums.CheckoutStepDelivery.String(), "validation")
		return c.View(), nil
	}
	c.delivery.errs = nil
	c.delivery.busy = true
	c.mu.Unlock()

	opCtx := context.WithoutCancel(ctx)
	err := c.deliveryVerifier.Verify(opCtx)
	if err == nil {
		err = c.persistDelivery(opCtx, sel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivery.busy = false
	if err != nil {
		c.delivery.submitErr = messageOf(err, SaveFailedMessage)
		c.metrics.IncStepFailure(enums.CheckoutStepDelivery.String(), failureReason(err))
		c.logg.Warn(c.logg.WithStep(opCtx, enums.CheckoutStepDelivery.String()), "step rejected: "+err.Error())
		return c.viewLocked(), nil
	}
	c.order.consent = false
	c.order.err = nil
	c.metrics.ObserveTransition(enums.CheckoutStepDelivery.String(), enums.CheckoutStepSummary.String())
	return c.viewLocked(), nil
}

func (c *Controller) persistDelivery(ctx context.Context, sel validation.Selection) error {
	patch := cart.CheckoutPatch{CityID: sel.CityID, DeliveryType: sel.DeliveryType}
	if err := c.store.UpdateCheckoutData(ctx, patch); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	if err := c.store.SetCurrentStep(ctx, enums.CheckoutStepSummary); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	return nil
}

// SetConsent records the customer's acknowledgement on the Summary step.
func (c *Controller) SetConsent(agreed bool) (View, error) {
	c.mu.Lock()
	if err := c.requireStepLocked(enums.CheckoutStepSummary); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.order.busy {
		c.mu.Unlock()
		return c.View(), busyError(enums.CheckoutStepSummary.String())
	}
	c.order.consent = agreed
	c.mu.Unlock()
	return c.View(), nil
}

// DismissError clears the submission banner of step.
func (c *Controller) DismissError(step enums.CheckoutStep) (View, error) {
	c.mu.Lock()
	switch step {
	case enums.CheckoutStepInformation:
		c.info.submitErr = ""
	case enums.CheckoutStepDelivery:
		c.delivery.submitErr = ""
	case enums.CheckoutStepSummary:
		c.order.err = nil
	default:
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout step")
	}
	c.mu.Unlock()
	return c.View(), nil
}

// PlaceOrder assembles the order from the current store and catalog and submits
// it. Failures stay on Summary with the cart intact; success clears the cart.
func (c *Controller) PlaceOrder(ctx context.Context) (View, error) {
	c.mu.Lock()
	if err := c.requireStepLocked(enums.CheckoutStepSummary); err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	if c.order.busy {
		c.mu.Unlock()
		return c.View(), busyError(enums.CheckoutStepSummary.String())
	}
	if !c.order.consent {
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeStateConflict, "terms must be accepted before placing the order")
	}
	if !c.cat.status.Ready() {
		c.mu.Unlock()
		return c.View(), catalogNotReady(c.cat.status)
	}
	st := c.store.Snapshot()
	if len(st.Items) == 0 {
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	if errs := validation.ValidateInformation(customerFrom(st.CheckoutData)); errs != nil {
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeStateConflict, "customer information is incomplete").
			WithDetails(map[string]any{"step": enums.CheckoutStepInformation.String(), "fieldErrors": errs})
	}
	if st.CheckoutData.CityID == nil || st.CheckoutData.DeliveryType == nil {
		c.order.err = pkgerrors.New(pkgerrors.CodeStateConflict, MissingDeliveryMessage)
		c.mu.Unlock()
		return c.View(), nil
	}
	sel := validation.Selection{CityID: st.CheckoutData.CityID, DeliveryType: st.CheckoutData.DeliveryType}
	if errs := validation.ValidateDelivery(sel, c.cat.cities); errs != nil {
		c.mu.Unlock()
		return c.View(), pkgerrors.New(pkgerrors.CodeStateConflict, "delivery selection is no longer valid").
			WithDetails(map[string]any{"step": enums.CheckoutStepDelivery.String(), "fieldErrors": errs})
	}
	order, err := orders.BuildOrder(st, c.cat.cities)
	if err != nil {
		c.mu.Unlock()
		return c.View(), err
	}
	fp, err := order.Fingerprint()
	if err != nil {
		c.mu.Unlock()
		return c.View(), pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fingerprint order")
	}
	if c.order.key == "" || c.order.fingerprint != fp {
		c.order.key = c.newKey()
		c.order.fingerprint = fp
	}
	key := c.order.key
	c.order.busy = true
	c.order.err = nil
	c.mu.Unlock()

	opCtx := c.logg.WithField(context.WithoutCancel(ctx), "idempotency_key", key)
	started := c.now()
	conf, err := c.orders.PlaceOrder(opCtx, order, key)
	elapsed := c.now().Sub(started)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.busy = false
	if err != nil {
		typed := pkgerrors.As(err)
		if typed == nil {
			typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, orders.InternalErrorMessage)
		}
		c.order.err = typed
		c.metrics.ObserveOrder(string(typed.Code()), elapsed)
		c.logg.Warn(c.logg.WithStep(opCtx, enums.CheckoutStepSummary.String()), "order placement failed: "+err.Error())
		return c.viewLocked(), nil
	}

	c.metrics.ObserveOrder("success", elapsed)
	c.logg.Info(c.logg.WithOrderID(opCtx, conf.OrderID), "order placed")
	c.confirmation = conf
	c.order = orderState{}
	if err := c.store.ClearCart(opCtx); err != nil {
		c.logg.Error(opCtx, "clear cart after order", err)
	}
	if c.resetAfterOrder {
		if err := c.store.ResetCheckout(opCtx); err != nil {
			c.logg.Error(opCtx, "reset checkout after order", err)
		}
		c.hydrate(c.store.Snapshot())
	}
	return c.viewLocked(), nil
}

// Reset discards checkout progress and returns to Information. Items are kept.
func (c *Controller) Reset(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.anyBusyLocked() {
		return c.viewLocked(), busyError("checkout")
	}
	if err := c.store.ResetCheckout(ctx); err != nil {
		return c.viewLocked(), pkgerrors.Wrap(pkgerrors.CodeInternal, err, SaveFailedMessage)
	}
	c.exited = false
	c.confirmation = nil
	c.order = orderState{}
	c.cat = catalogState{status: enums.CatalogStatusIdle}
	c.hydrate(c.store.Snapshot())
	return c.viewLocked(), nil
}

// View renders the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	st := c.store.Snapshot()
	v := View{
		Step:         st.CurrentStep,
		StepName:     st.CurrentStep.String(),
		Exited:       c.exited,
		User:         st.User,
		Confirmation: c.confirmation,
		Information: InformationView{
			Form:        c.info.form,
			FieldErrors: copyErrors(c.info.errs),
			SubmitError: c.info.submitErr,
			Submitting:  c.info.busy,
		},
		Delivery: DeliveryView{
			CatalogStatus: c.cat.status,
			CatalogError:  c.cat.err,
			Cities:        append([]catalog.City(nil), c.cat.cities...),
			CityID:        copyInt(c.delivery.cityID),
			DeliveryType:  copyType(c.delivery.deliveryType),
			Options:       []catalog.DeliveryOption{},
			FieldErrors:   copyErrors(c.delivery.errs),
			SubmitError:   c.delivery.submitErr,
			Submitting:    c.delivery.busy,
			CanAdvance:    c.canAdvanceDeliveryLocked(),
		},
	}
	if v.Delivery.Cities == nil {
		v.Delivery.Cities = []catalog.City{}
	}
	if c.delivery.cityID != nil {
		if city, ok := catalog.Find(c.cat.cities, *c.delivery.cityID); ok {
			v.Delivery.Options = city.Options()
		}
	}

	subtotal := c.store.TotalPrice()
	deliveryPrice := c.store.DeliveryPrice(c.cat.cities)
	summary := SummaryView{
		Customer:      customerFrom(st.CheckoutData),
		Items:         st.Items,
		DeliveryLabel: "Delivery",
		Subtotal:      subtotal,
		DeliveryPrice: deliveryPrice,
		Total:         subtotal.Add(deliveryPrice),
		Consent:       c.order.consent,
		Placing:       c.order.busy,
	}
	if st.CheckoutData.DeliveryType != nil {
		summary.DeliveryLabel = st.CheckoutData.DeliveryType.Label()
	}
	if st.CheckoutData.CityID != nil {
		if city, ok := catalog.Find(c.cat.cities, *st.CheckoutData.CityID); ok {
			summary.CityName = city.Name
		}
	}
	if c.order.err != nil {
		summary.OrderError = c.order.err.Message()
		summary.OrderErrorCode = c.order.err.Code()
		summary.Retryable = c.order.err.Retryable()
	}
	v.Summary = summary
	return v
}

func (c *Controller) requireStepLocked(step enums.CheckoutStep) error {
	current := c.store.CurrentStep()
	if current != step {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout is on the %s step", current)).
			WithDetails(map[string]string{"currentStep": current.String(), "requiredStep": step.String()})
	}
	return nil
}

func (c *Controller) requireDeliveryEditableLocked() error {
	if err := c.requireStepLocked(enums.CheckoutStepDelivery); err != nil {
		return err
	}
	if c.delivery.busy {
		return busyError(enums.CheckoutStepDelivery.String())
	}
	if !c.cat.status.Ready() {
		return catalogNotReady(c.cat.status)
	}
	return nil
}

func (c *Controller) stepBusyLocked() bool {
	switch c.store.CurrentStep() {
	case enums.CheckoutStepInformation:
		return c.info.busy
	case enums.CheckoutStepDelivery:
		return c.delivery.busy
	case enums.CheckoutStepSummary:
		return c.order.busy
	}
	return false
}

func (c *Controller) anyBusyLocked() bool {
	return c.info.busy || c.delivery.busy || c.order.busy || c.cat.busy
}

func (c *Controller) setDeliveryErrorLocked(field, msg string) {
	if c.delivery.errs == nil {
		c.delivery.errs = validation.FieldErrors{}
	}
	c.delivery.errs[field] = msg
}

func (c *Controller) revalidateDeliveryLocked() {
	sel := validation.Selection{CityID: c.delivery.cityID, DeliveryType: c.delivery.deliveryType}
	c.delivery.errs = validation.ValidateDelivery(sel, c.cat.cities)
}

func busyError(scope string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "operation already in progress").
		WithDetails(map[string]string{"scope": scope})
}

func catalogNotReady(status enums.CatalogStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "city catalog is not loaded").
		WithDetails(map[string]string{"catalogStatus": status.String()})
}

func messageOf(err error, fallback string) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return fallback
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeValidation:
		return "server"
	case pkgerrors.CodeDependency:
		return "dependency"
	}
	return "internal"
}

func customerFrom(d cart.CheckoutData) validation.CustomerInfo {
	return validation.CustomerInfo{FirstName: d.FirstName, LastName: d.LastName, Email: d.Email}
}

// splitName mirrors the display name into first and last name fields.
func splitName(name string) (string, string) {
	parts := strings.Split(name, " ")
	first := parts[0]
	last := ""
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyType(v *enums.DeliveryType) *enums.DeliveryType {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyErrors(errs validation.FieldErrors) validation.FieldErrors {
	if len(errs) == 0 {
		return nil
	}
	out := make(validation.FieldErrors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}
