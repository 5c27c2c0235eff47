package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Liam-Lillieroth/MetaTask/internal/model"
	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

// teamFile - документ для seed:
//
//	system: workflow
//	teams:
//	  - ref: t-1
//	    name: Platform
//	    capacity: 2
type teamFile struct {
	System string             `yaml:"system"`
	Teams  []service.TeamSeed `yaml:"teams"`
}

func readTeamFile(r io.Reader) (*teamFile, error) {
	var f teamFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode team file: %w", err)
	}
	return &f, nil
}

// syncItem - один элемент файла пакетной синхронизации. JSON тоже подходит, это YAML.
// Ресурс задаётся через resource_id или entity (внешнее имя).
type syncItem struct {
	ExternalRef string         `yaml:"external_ref"`
	ResourceID  string         `yaml:"resource_id"`
	Entity      string         `yaml:"entity"`
	Requester   string         `yaml:"requester"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Start       time.Time      `yaml:"start"`
	End         time.Time      `yaml:"end"`
	Priority    string         `yaml:"priority"`
	Status      string         `yaml:"status"`
	Payload     map[string]any `yaml:"payload"`
}

type syncFile struct {
	System string     `yaml:"system"`
	Items  []syncItem `yaml:"items"`
}

func readSyncFile(r io.Reader) (*syncFile, error) {
	var f syncFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode sync file: %w", err)
	}
	return &f, nil
}

// toExternal собирает запрос синхронизации. resolve переводит имя сущности
// в id ресурса и вызывается, только если resource_id пуст.
func (it syncItem) toExternal(system string, resolve func(name string) (uuid.UUID, error)) (model.ExternalBooking, error) {
	ext := model.ExternalBooking{
		ExternalSystem: system,
		ExternalRef:    it.ExternalRef,
		Requester:      it.Requester,
		Title:          it.Title,
		Description:    it.Description,
		Interval:       model.Interval{Start: it.Start, End: it.End},
		Priority:       model.Priority(it.Priority),
		ExternalStatus: it.Status,
		Payload:        it.Payload,
	}
	switch {
	case it.ResourceID != "":
		id, err := uuid.Parse(it.ResourceID)
		if err != nil {
			return ext, model.NewValidationError("resource_id", "must be a UUID")
		}
		ext.ResourceID = id
	case it.Entity != "":
		id, err := resolve(it.Entity)
		if err != nil {
			return ext, err
		}
		ext.ResourceID = id
	}
	return ext, nil
}
