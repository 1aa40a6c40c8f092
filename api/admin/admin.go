// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	pkgerrors "github.com/pkg/errors"

	"github.com/edulearn/edu/api/utils"
	"github.com/edulearn/edu/registry"
	"github.com/edulearn/edu/session"
)

type Admin struct {
	registry *registry.Service
}

func New(registry *registry.Service) *Admin {
	return &Admin{registry: registry}
}

type CourseRequest struct {
	MetadataHash string `json:"metadataHash"`
}

type InstructorRequest struct {
	Address string `json:"address"`
}

type TxResponse struct {
	Tx common.Hash `json:"tx"`
}

func (a *Admin) handleCreateCourse(w http.ResponseWriter, req *http.Request) error {
	var body CourseRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	hash, err := a.registry.CreateCourse(req.Context(), body.MetadataHash)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &TxResponse{Tx: hash})
}

func (a *Admin) handleVerifyInstructor(w http.ResponseWriter, req *http.Request) error {
	var body InstructorRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(pkgerrors.WithMessage(err, "body"))
	}
	hash, err := a.registry.VerifyInstructor(req.Context(), body.Address)
	if err != nil {
		return convertError(err)
	}
	return utils.WriteJSON(w, &TxResponse{Tx: hash})
}

func convertError(err error) error {
	switch {
	case errors.Is(err, registry.ErrMissingMetadata),
		errors.Is(err, registry.ErrMissingInstructor),
		errors.Is(err, registry.ErrInvalidInstructor):
		return utils.BadRequest(err)
	case errors.Is(err, session.ErrNotAdmin),
		errors.Is(err, session.ErrNotConnected),
		errors.Is(err, session.ErrWrongNetwork):
		return utils.Forbidden(err)
	}
	return utils.HTTPError(err, http.StatusBadGateway)
}

func (a *Admin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/courses").Methods(http.MethodPost).Name("POST /admin/courses").HandlerFunc(utils.WrapHandlerFunc(a.handleCreateCourse))
	sub.Path("/instructors").Methods(http.MethodPost).Name("POST /admin/instructors").HandlerFunc(utils.WrapHandlerFunc(a.handleVerifyInstructor))
}
