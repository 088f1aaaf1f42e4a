package graph

import "github.com/google/uuid"

// Opt is a tri-state field of a partial update: unset (keep the old value), explicit null
// (clear), or an explicit value (replace).
type Opt[T any] struct {
	set   bool
	null  bool
	value T
}

// Some wraps an explicit replacement value.
func Some[T any](v T) Opt[T] {
	return Opt[T]{set: true, value: v}
}

// Null marks the field for clearing.
func Null[T any]() Opt[T] {
	return Opt[T]{set: true, null: true}
}

// IsSet reports whether the update mentions the field at all.
func (o Opt[T]) IsSet() bool { return o.set }

// IsNull reports whether the update explicitly clears the field.
func (o Opt[T]) IsNull() bool { return o.set && o.null }

// Get returns the explicit value, if one was supplied.
func (o Opt[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// Update is a handler's partial state change.
//
// Messages are appended. Profile scalars and SessionID follow last-non-null-wins: nil keeps
// the prior value. Mapping fields are replaced wholesale only when set; Null empties them.
type Update struct {
	Messages []Message

	SessionID   *uuid.UUID
	Name        *string
	PhoneNumber *string
	Address     *string
	Email       *string

	SeenProducts Opt[map[uuid.UUID]SeenProduct]
	Cart         Opt[map[CartKey]CartLine]
	Orders       Opt[map[uuid.UUID]Order]

	Next Target
}

// Then folds a later update into this one with the same reducer rules Merge applies, so a
// handler can accumulate several tool results into a single update.
func (u Update) Then(later Update) Update {
	out := u
	out.Messages = append(append([]Message(nil), u.Messages...), later.Messages...)
	out.SessionID = lastNonNil(u.SessionID, later.SessionID)
	out.Name = lastNonNil(u.Name, later.Name)
	out.PhoneNumber = lastNonNil(u.PhoneNumber, later.PhoneNumber)
	out.Address = lastNonNil(u.Address, later.Address)
	out.Email = lastNonNil(u.Email, later.Email)
	if later.SeenProducts.IsSet() {
		out.SeenProducts = later.SeenProducts
	}
	if later.Cart.IsSet() {
		out.Cart = later.Cart
	}
	if later.Orders.IsSet() {
		out.Orders = later.Orders
	}
	if later.Next != "" {
		out.Next = later.Next
	}
	return out
}

// Merge applies upd to old and returns the new state. old is not modified and the returned
// state never aliases maps held by upd.
func Merge(old ConversationState, upd Update) ConversationState {
	out := old

	if len(upd.Messages) > 0 {
		msgs := make([]Message, 0, len(old.Messages)+len(upd.Messages))
		msgs = append(msgs, old.Messages...)
		msgs = append(msgs, cloneMessages(upd.Messages)...)
		out.Messages = msgs
	}

	out.SessionID = lastNonNil(old.SessionID, clonePtr(upd.SessionID))
	out.Name = lastNonNil(old.Name, clonePtr(upd.Name))
	out.PhoneNumber = lastNonNil(old.PhoneNumber, clonePtr(upd.PhoneNumber))
	out.Address = lastNonNil(old.Address, clonePtr(upd.Address))
	out.Email = lastNonNil(old.Email, clonePtr(upd.Email))

	if upd.SeenProducts.IsSet() {
		v, _ := upd.SeenProducts.Get()
		out.SeenProducts = CloneSeenProducts(v)
	}
	if upd.Cart.IsSet() {
		v, _ := upd.Cart.Get()
		out.Cart = CloneCart(v)
	}
	if upd.Orders.IsSet() {
		v, _ := upd.Orders.Get()
		out.Orders = CloneOrders(v)
	}

	if upd.Next != "" {
		out.Next = upd.Next
	}
	return out
}

func lastNonNil[T any](old, next *T) *T {
	if next != nil {
		return next
	}
	return old
}
