package controllers

import "github.com/gofiber/fiber/v2"

// Package-level handlers for the router, delegating to the global controllers.

func HandleReportNew(c *fiber.Ctx) error {
	return GetReportController().HandleSubmitForm(c)
}

func HandleReportCreate(c *fiber.Ctx) error {
	return GetReportController().HandleSubmit(c)
}

func HandleReportList(c *fiber.Ctx) error {
	return GetReportController().HandleList(c)
}

func HandleReportStream(c *fiber.Ctx) error {
	return GetReportController().HandleStream(c)
}

func HandleReportShow(c *fiber.Ctx) error {
	return GetReportController().HandleDetail(c)
}

func HandleUserProfile(c *fiber.Ctx) error {
	return GetUserController().HandleProfile(c)
}

func HandleUserProfileUpdate(c *fiber.Ctx) error {
	return GetUserController().HandleProfileUpdate(c)
}
