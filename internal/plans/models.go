package plans

import "errors"

var ErrPlanNotFound = errors.New("plan not found")

// Plan describes one health-plan portal the extension can automate.
// Script payloads are deliberately not embedded; they are fetched per
// plan through GetScripts.
type Plan struct {
	ID        string   `json:"id" bson:"id"`
	Name      string   `json:"name" bson:"name"`
	PortalURL string   `json:"portal_url" bson:"portalUrl"`
	Tags      []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// plansFile mirrors data/plans_base.json.
type plansFile struct {
	Plans []Plan `json:"plans"`
}

// scriptsFile mirrors data/scripts.json: plan id -> group -> script ref.
type scriptsFile struct {
	ScriptsByPlan map[string]map[string]scriptRef `json:"scripts_by_plan"`
}

// scriptRef points at the script body, either a path relative to the data
// dir or an object-store key.
type scriptRef struct {
	File string `json:"file"`
}
