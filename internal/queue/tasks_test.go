package queue

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewIngestTask(t *testing.T) {
	tests := []struct {
		name    string
		docID   string
		userID  string
		wantErr bool
	}{
		{name: "valid", docID: "d1", userID: "u1"},
		{name: "missing doc", userID: "u1", wantErr: true},
		{name: "missing user", docID: "d1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewIngestTask(tt.docID, tt.userID, TaskOptions{MaxRetry: 3, Timeout: time.Minute})
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewIngestTask() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewIngestTask() error = %v", err)
			}
			if task.Type() != TypeDocumentIngest {
				t.Errorf("Type() = %s", task.Type())
			}
			var p IngestPayload
			if err := json.Unmarshal(task.Payload(), &p); err != nil {
				t.Fatalf("payload: %v", err)
			}
			if p.DocID != tt.docID || p.UserID != tt.userID {
				t.Errorf("payload = %+v", p)
			}
		})
	}
}

func TestNewAnalysisTask(t *testing.T) {
	for _, typ := range []string{TypeAnalysisSimilarity, TypeAnalysisTopics, TypeAnalysisCluster} {
		task, err := NewAnalysisTask(typ, "u1", 5, TaskOptions{})
		if err != nil {
			t.Fatalf("NewAnalysisTask(%s) error = %v", typ, err)
		}
		var p AnalysisPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if task.Type() != typ || p.UserID != "u1" || p.MaxTopics != 5 {
			t.Errorf("task %s payload = %+v", task.Type(), p)
		}
	}

	if _, err := NewAnalysisTask(TypeDocumentIngest, "u1", 0, TaskOptions{}); err == nil {
		t.Error("NewAnalysisTask() accepted a non-analysis type")
	}
	if _, err := NewReconcileTask("", TaskOptions{}); err == nil {
		t.Error("NewReconcileTask() accepted an empty user")
	}
}
