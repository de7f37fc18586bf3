package controllers

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type AccountController struct {
	service  *services.AccountService
	contacts *services.ContactService
}

func NewAccountController(db *gorm.DB) *AccountController {
	return &AccountController{
		service:  services.NewAccountService(db),
		contacts: services.NewContactService(db),
	}
}

func (ctl *AccountController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := ctl.service.Register(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(user)
}

func (ctl *AccountController) Confirm(c *ctx.Context) {
	var in services.ConfirmInput
	if !c.BindJSON(&in) {
		return
	}
	if err := ctl.service.Confirm(c.Context(), in); err != nil {
		c.Fail(err)
		return
	}
	c.Message("Account confirmed")
}

func (ctl *AccountController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	pair, err := ctl.service.Login(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(pair)
}

func (ctl *AccountController) Refresh(c *ctx.Context) {
	var in services.RefreshInput
	if !c.BindJSON(&in) {
		return
	}
	pair, err := ctl.service.Refresh(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(pair)
}

func (ctl *AccountController) Details(c *ctx.Context) {
	user, err := ctl.service.Details(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

func (ctl *AccountController) UpdateDetails(c *ctx.Context) {
	var in services.DetailsInput
	if !c.BindJSON(&in) {
		return
	}
	user, err := ctl.service.UpdateDetails(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(user)
}

// ─── Contacts ─────────────────────────────────────────────────────────────────

func (ctl *AccountController) Contacts(c *ctx.Context) {
	list, err := ctl.contacts.List(c.Context(), c.UserID())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(list)
}

func (ctl *AccountController) StoreContact(c *ctx.Context) {
	var in services.ContactInput
	if !c.BindJSON(&in) {
		return
	}
	contact, err := ctl.contacts.Create(c.Context(), c.UserID(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(contact)
}

func (ctl *AccountController) UpdateContact(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Fail(err)
		return
	}
	var in services.ContactPatch
	if !c.BindJSON(&in) {
		return
	}
	contact, err := ctl.contacts.Update(c.Context(), c.UserID(), id, in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(contact)
}

func (ctl *AccountController) DestroyContact(c *ctx.Context) {
	id, err := c.ParamUint("id")
	if err != nil {
		c.Fail(err)
		return
	}
	if err := ctl.contacts.Delete(c.Context(), c.UserID(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}
