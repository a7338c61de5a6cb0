package families

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gatherhall/community-backend/internal/members"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/db/models"
	"github.com/gatherhall/community-backend/pkg/enums"
	pkgerrors "github.com/gatherhall/community-backend/pkg/errors"
	"github.com/gatherhall/community-backend/pkg/logger"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	if err == nil {
		t.Fatal("expected error creating service without dependencies")
	}
}

func TestBootstrapFoundsFamily(t *testing.T) {
	user := baseUser()
	userRepo := newStubUserRepo(user)
	memberRepo := &stubMembersRepo{}
	familyRepo := &stubFamilyRepo{}
	repos := Repos{
		Users:       userRepo,
		Members:     memberRepo,
		Families:    familyRepo,
		Invitations: &stubInvitationsRepo{},
	}

	family, member, err := Bootstrap(context.Background(), repos, user)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if family.Name != "Smith Family" {
		t.Fatalf("expected family name %q got %q", "Smith Family", family.Name)
	}
	if family.Slug != "smith-family" {
		t.Fatalf("expected slug %q got %q", "smith-family", family.Slug)
	}
	if family.ManagerID != user.ID {
		t.Fatalf("expected manager %s got %s", user.ID, family.ManagerID)
	}
	if member.UserID == nil || *member.UserID != user.ID {
		t.Fatalf("expected member linked to user, got %v", member.UserID)
	}
	if member.Email == nil || *member.Email != user.Email {
		t.Fatalf("expected member email %q got %v", user.Email, member.Email)
	}
	if user.FamilyID == nil || *user.FamilyID != family.ID {
		t.Fatalf("expected user attached to family, got %v", user.FamilyID)
	}
	roles := userRepo.rolesFor(user.ID)
	if !enums.RoleSetFromStrings(roles).Has(enums.RoleFamilyManager) {
		t.Fatalf("expected manager role granted, got %v", roles)
	}
	if !enums.RoleSetFromStrings(roles).Has(enums.RoleUser) {
		t.Fatalf("expected user role retained, got %v", roles)
	}
}

func TestBootstrapRetriesSlugCollision(t *testing.T) {
	user := baseUser()
	familyRepo := &stubFamilyRepo{
		createErrs: []error{errors.New(`duplicate key value violates unique constraint "idx_families_slug"`)},
	}
	repos := Repos{
		Users:       newStubUserRepo(user),
		Members:     &stubMembersRepo{},
		Families:    familyRepo,
		Invitations: &stubInvitationsRepo{},
	}

	family, _, err := Bootstrap(context.Background(), repos, user)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if family.Slug != "smith-family-1" {
		t.Fatalf("expected suffixed slug %q got %q", "smith-family-1", family.Slug)
	}
}

func TestBootstrapSlugExhaustionConflicts(t *testing.T) {
	user := baseUser()
	familyRepo := &stubFamilyRepo{
		createErr: errors.New(`duplicate key value violates unique constraint "idx_families_slug"`),
	}
	repos := Repos{
		Users:       newStubUserRepo(user),
		Members:     &stubMembersRepo{},
		Families:    familyRepo,
		Invitations: &stubInvitationsRepo{},
	}

	_, _, err := Bootstrap(context.Background(), repos, user)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetMyFamilyWithoutFamily(t *testing.T) {
	user := baseUser()
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(user),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.GetMyFamily(context.Background(), user.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetMyFamilyIncludesInvitationsForManager(t *testing.T) {
	manager, family := managedFamily()
	inviteRepo := &stubInvitationsRepo{
		list: []models.FamilyInvitation{{ID: uuid.New(), FamilyID: family.ID, Email: "new@example.com"}},
	}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: inviteRepo,
	})

	detail, err := svc.GetMyFamily(context.Background(), manager.ID)
	if err != nil {
		t.Fatalf("get my family: %v", err)
	}
	if len(detail.Invitations) != 1 {
		t.Fatalf("expected pending invitations in manager view, got %v", detail.Invitations)
	}
}

func TestGetMyFamilyHidesInvitationsFromPlainMember(t *testing.T) {
	manager, family := managedFamily()
	plain := baseUser()
	plain.FamilyID = &family.ID
	inviteRepo := &stubInvitationsRepo{
		list: []models.FamilyInvitation{{ID: uuid.New(), FamilyID: family.ID}},
	}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager, plain),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: inviteRepo,
	})

	detail, err := svc.GetMyFamily(context.Background(), plain.ID)
	if err != nil {
		t.Fatalf("get my family: %v", err)
	}
	if len(detail.Invitations) != 0 {
		t.Fatalf("expected no invitations in member view, got %v", detail.Invitations)
	}
}

func TestUpdateMyFamilyForbiddenForNonManager(t *testing.T) {
	_, family := managedFamily()
	plain := baseUser()
	plain.FamilyID = &family.ID
	plain.Roles = []string{string(enums.RoleUser), string(enums.RoleFamilyManager)}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(plain),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	// Holding the manager role is not enough; ownership is the manager pointer.
	_, err := svc.UpdateMyFamily(context.Background(), plain.ID, UpdateFamilyInput{Name: stringPtr("Renamed")})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateMyFamilyClearsAndKeepsFields(t *testing.T) {
	manager, family := managedFamily()
	family.Phone = stringPtr("405-555-0000")
	family.Notes = stringPtr("gate code 1234")
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	dto, err := svc.UpdateMyFamily(context.Background(), manager.ID, UpdateFamilyInput{
		Phone: stringPtr(""),
	})
	if err != nil {
		t.Fatalf("update family: %v", err)
	}
	if dto.Phone != nil {
		t.Fatalf("expected phone cleared, got %v", *dto.Phone)
	}
	if dto.Notes == nil || *dto.Notes != "gate code 1234" {
		t.Fatalf("expected omitted notes untouched, got %v", dto.Notes)
	}
}

func TestUpdateMyFamilyRejectsOutsideManager(t *testing.T) {
	manager, family := managedFamily()
	outsider := baseUser()
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager, outsider),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.UpdateMyFamily(context.Background(), manager.ID, UpdateFamilyInput{ManagerID: &outsider.ID})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInviteUnknownEmail(t *testing.T) {
	manager, family := managedFamily()
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.Invite(context.Background(), manager.ID, "nobody@example.com")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInviteRejectsUserAlreadyInFamily(t *testing.T) {
	manager, family := managedFamily()
	other := baseUser()
	other.Email = "taken@example.com"
	otherFamily := uuid.New()
	other.FamilyID = &otherFamily
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager, other),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.Invite(context.Background(), manager.ID, "taken@example.com")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInviteStoresSubmittedEmail(t *testing.T) {
	manager, family := managedFamily()
	invitee := baseUser()
	invitee.Email = "mixed@example.com"
	inviteRepo := &stubInvitationsRepo{}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager, invitee),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: inviteRepo,
	})

	result, err := svc.Invite(context.Background(), manager.ID, "  Mixed@Example.COM ")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	// Lookup normalizes, storage keeps the submitted casing.
	if result.Email != "Mixed@Example.COM" {
		t.Fatalf("expected submitted email stored, got %q", result.Email)
	}
	if len(inviteRepo.created) != 1 {
		t.Fatalf("expected one invitation stored, got %d", len(inviteRepo.created))
	}
	if inviteRepo.created[0].Email != "Mixed@Example.COM" {
		t.Fatalf("expected invitation email %q got %q", "Mixed@Example.COM", inviteRepo.created[0].Email)
	}
	if result.Token == "" {
		t.Fatal("expected invite token")
	}
	if result.InviteURL != "http://localhost:5000/api/families/join/"+result.Token {
		t.Fatalf("unexpected invite url %q", result.InviteURL)
	}
	if result.ExpiresAt.Before(time.Now().UTC().Add(30 * time.Minute)) {
		t.Fatalf("expected expiry roughly one hour out, got %v", result.ExpiresAt)
	}
}

func TestInviteForbiddenForNonManager(t *testing.T) {
	_, family := managedFamily()
	plain := baseUser()
	plain.FamilyID = &family.ID
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(plain),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.Invite(context.Background(), plain.ID, "anyone@example.com")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestJoinEmailCaseMismatchRejected(t *testing.T) {
	_, family := managedFamily()
	joiner := baseUser()
	joiner.Email = "user@example.com"
	inviteRepo := &stubInvitationsRepo{
		invitation: &models.FamilyInvitation{
			ID:        uuid.New(),
			FamilyID:  family.ID,
			Email:     "User@Example.com",
			Token:     "tok-1",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(joiner),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: inviteRepo,
	})

	// The stored email is compared verbatim against the account email.
	_, err := svc.Join(context.Background(), joiner.ID, "tok-1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed := pkgerrors.As(err); typed.Message() != "invitation was issued to a different email" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestJoinAttachesUserAndConsumesToken(t *testing.T) {
	_, family := managedFamily()
	joiner := baseUser()
	joiner.Email = "joiner@example.com"
	userRepo := newStubUserRepo(joiner)
	memberRepo := &stubMembersRepo{}
	inviteRepo := &stubInvitationsRepo{
		invitation: &models.FamilyInvitation{
			ID:        uuid.New(),
			FamilyID:  family.ID,
			Email:     "joiner@example.com",
			Token:     "tok-2",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := newTestService(t, Repos{
		Users:       userRepo,
		Members:     memberRepo,
		Families:    &stubFamilyRepo{family: family},
		Invitations: inviteRepo,
	})

	detail, err := svc.Join(context.Background(), joiner.ID, "tok-2")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if detail.ID != family.ID {
		t.Fatalf("expected family %s got %s", family.ID, detail.ID)
	}
	if len(inviteRepo.deletedTokens) != 1 || inviteRepo.deletedTokens[0] != "tok-2" {
		t.Fatalf("expected token consumed, got %v", inviteRepo.deletedTokens)
	}
	if len(memberRepo.created) != 1 {
		t.Fatalf("expected mirror member created, got %d", len(memberRepo.created))
	}
	if memberRepo.created[0].UserID == nil || *memberRepo.created[0].UserID != joiner.ID {
		t.Fatalf("expected mirror member linked to joiner")
	}
	if attached := userRepo.familyFor(joiner.ID); attached == nil || *attached != family.ID {
		t.Fatalf("expected joiner attached to family, got %v", attached)
	}
}

func TestJoinRejectsSecondFamily(t *testing.T) {
	_, family := managedFamily()
	joiner := baseUser()
	existing := uuid.New()
	joiner.FamilyID = &existing
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(joiner),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.Join(context.Background(), joiner.ID, "tok-3")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJoinExpiredToken(t *testing.T) {
	joiner := baseUser()
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(joiner),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{},
		Invitations: &stubInvitationsRepo{findErr: gorm.ErrRecordNotFound},
	})

	_, err := svc.Join(context.Background(), joiner.ID, "stale")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddMemberInheritsManagerContact(t *testing.T) {
	manager, family := managedFamily()
	manager.Phone = stringPtr("405-555-1111")
	manager.Address = stringPtr("12 Elm St")
	memberRepo := &stubMembersRepo{}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     memberRepo,
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	dto, err := svc.AddMember(context.Background(), manager.ID, AddMemberInput{
		FirstName: " June ",
		LastName:  "Smith",
		Address:   stringPtr("7 Oak Ave"),
	})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if dto.FirstName != "June" {
		t.Fatalf("expected trimmed first name, got %q", dto.FirstName)
	}
	created := memberRepo.created[0]
	if created.Phone == nil || *created.Phone != "405-555-1111" {
		t.Fatalf("expected inherited phone, got %v", created.Phone)
	}
	if created.Address == nil || *created.Address != "7 Oak Ave" {
		t.Fatalf("expected explicit address to win, got %v", created.Address)
	}
	if created.Gender != enums.GenderOther {
		t.Fatalf("expected default gender, got %v", created.Gender)
	}
	if created.UserID != nil {
		t.Fatal("expected accountless member")
	}
}

func TestAddMemberRequiresNames(t *testing.T) {
	manager, family := managedFamily()
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.AddMember(context.Background(), manager.ID, AddMemberInput{FirstName: "  "})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddMemberRejectsUnknownGender(t *testing.T) {
	manager, family := managedFamily()
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.AddMember(context.Background(), manager.ID, AddMemberInput{
		FirstName: "June",
		LastName:  "Smith",
		Gender:    "unknown",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateMemberClearVersusOmit(t *testing.T) {
	manager, family := managedFamily()
	member := &models.FamilyMember{
		ID:        uuid.New(),
		FamilyID:  family.ID,
		FirstName: "June",
		LastName:  "Smith",
		Gender:    enums.GenderFemale,
		Phone:     stringPtr("405-555-2222"),
		Email:     stringPtr("june@example.com"),
	}
	memberRepo := &stubMembersRepo{member: member}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     memberRepo,
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	dto, err := svc.UpdateMember(context.Background(), manager.ID, member.ID, UpdateMemberInput{
		Phone: stringPtr(""),
	})
	if err != nil {
		t.Fatalf("update member: %v", err)
	}
	if dto.Phone != nil {
		t.Fatalf("expected phone cleared, got %v", *dto.Phone)
	}
	if dto.Email == nil || *dto.Email != "june@example.com" {
		t.Fatalf("expected omitted email untouched, got %v", dto.Email)
	}
}

func TestUpdateMemberSelfEditAllowed(t *testing.T) {
	manager, family := managedFamily()
	self := baseUser()
	self.FamilyID = &family.ID
	member := &models.FamilyMember{
		ID:        uuid.New(),
		FamilyID:  family.ID,
		UserID:    &self.ID,
		FirstName: "John",
		LastName:  "Smith",
	}
	userRepo := newStubUserRepo(manager, self)
	memberRepo := &stubMembersRepo{member: member}
	svc := newTestService(t, Repos{
		Users:       userRepo,
		Members:     memberRepo,
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	dto, err := svc.UpdateMember(context.Background(), self.ID, member.ID, UpdateMemberInput{
		Phone: stringPtr("405-555-3333"),
	})
	if err != nil {
		t.Fatalf("self edit: %v", err)
	}
	if dto.Phone == nil || *dto.Phone != "405-555-3333" {
		t.Fatalf("expected phone updated, got %v", dto.Phone)
	}
	// Linked members mirror profile changes onto the account.
	mirrored := userRepo.lastUpdated()
	if mirrored == nil || mirrored.Phone == nil || *mirrored.Phone != "405-555-3333" {
		t.Fatalf("expected patch mirrored onto user, got %+v", mirrored)
	}
}

func TestUpdateMemberForbiddenForOtherMember(t *testing.T) {
	_, family := managedFamily()
	plain := baseUser()
	plain.FamilyID = &family.ID
	member := &models.FamilyMember{ID: uuid.New(), FamilyID: family.ID, FirstName: "June", LastName: "Smith"}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(plain),
		Members:     &stubMembersRepo{member: member},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.UpdateMember(context.Background(), plain.ID, member.ID, UpdateMemberInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateMemberMirrorFailureDoesNotFail(t *testing.T) {
	manager, family := managedFamily()
	missing := uuid.New()
	member := &models.FamilyMember{
		ID:        uuid.New(),
		FamilyID:  family.ID,
		UserID:    &missing,
		FirstName: "June",
		LastName:  "Smith",
	}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(manager),
		Members:     &stubMembersRepo{member: member},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.UpdateMember(context.Background(), manager.ID, member.ID, UpdateMemberInput{
		FirstName: stringPtr("Junie"),
	})
	if err != nil {
		t.Fatalf("expected mirror failure to be swallowed, got %v", err)
	}
}

func TestDeleteMemberLastManagerConflict(t *testing.T) {
	manager, family := managedFamily()
	member := &models.FamilyMember{
		ID:       uuid.New(),
		FamilyID: family.ID,
		UserID:   &manager.ID,
	}
	userRepo := newStubUserRepo(manager)
	userRepo.managerCount = 1
	memberRepo := &stubMembersRepo{member: member}
	svc := newTestService(t, Repos{
		Users:       userRepo,
		Members:     memberRepo,
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	err := svc.DeleteMember(context.Background(), manager.ID, member.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(memberRepo.deleted) != 0 {
		t.Fatalf("expected no deletion, got %v", memberRepo.deleted)
	}
	if len(userRepo.detachedUsers) != 0 {
		t.Fatalf("expected no detach, got %v", userRepo.detachedUsers)
	}
}

func TestDeleteMemberDetachesLinkedUser(t *testing.T) {
	manager, family := managedFamily()
	linked := baseUser()
	linked.FamilyID = &family.ID
	linked.Roles = []string{string(enums.RoleUser), string(enums.RoleFamilyManager)}
	member := &models.FamilyMember{
		ID:       uuid.New(),
		FamilyID: family.ID,
		UserID:   &linked.ID,
	}
	userRepo := newStubUserRepo(manager, linked)
	userRepo.managerCount = 2
	memberRepo := &stubMembersRepo{member: member}
	svc := newTestService(t, Repos{
		Users:       userRepo,
		Members:     memberRepo,
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	if err := svc.DeleteMember(context.Background(), manager.ID, member.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	if len(memberRepo.deleted) != 1 || memberRepo.deleted[0] != member.ID {
		t.Fatalf("expected member deleted, got %v", memberRepo.deleted)
	}
	if detached := userRepo.familyFor(linked.ID); detached != nil {
		t.Fatalf("expected linked user detached, got %v", detached)
	}
	if _, err := userRepo.FindByID(context.Background(), linked.ID); err != nil {
		t.Fatal("expected linked user account preserved")
	}
}

func TestTransferOwnershipGrantsRole(t *testing.T) {
	manager, family := managedFamily()
	target := baseUser()
	target.FamilyID = &family.ID
	userRepo := newStubUserRepo(manager, target)
	familyRepo := &stubFamilyRepo{family: family}
	svc := newTestService(t, Repos{
		Users:       userRepo,
		Members:     &stubMembersRepo{},
		Families:    familyRepo,
		Invitations: &stubInvitationsRepo{},
	})

	dto, err := svc.TransferOwnership(context.Background(), manager.ID, target.ID)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dto.ManagerID != target.ID {
		t.Fatalf("expected manager %s got %s", target.ID, dto.ManagerID)
	}
	roles := enums.RoleSetFromStrings(userRepo.rolesFor(target.ID))
	if !roles.Has(enums.RoleFamilyManager) {
		t.Fatalf("expected manager role granted, got %v", roles)
	}
	if !roles.Has(enums.RoleUser) {
		t.Fatalf("expected existing roles preserved, got %v", roles)
	}
}

func TestTransferOwnershipForbiddenForRoleHolder(t *testing.T) {
	_, family := managedFamily()
	pretender := baseUser()
	pretender.FamilyID = &family.ID
	pretender.Roles = []string{string(enums.RoleUser), string(enums.RoleFamilyManager)}
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(pretender),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{family: family},
		Invitations: &stubInvitationsRepo{},
	})

	_, err := svc.TransferOwnership(context.Background(), pretender.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAdminDeleteFamilyCascades(t *testing.T) {
	_, family := managedFamily()
	userRepo := newStubUserRepo()
	memberRepo := &stubMembersRepo{}
	familyRepo := &stubFamilyRepo{family: family}
	inviteRepo := &stubInvitationsRepo{}
	svc := newTestService(t, Repos{
		Users:       userRepo,
		Members:     memberRepo,
		Families:    familyRepo,
		Invitations: inviteRepo,
	})

	if err := svc.DeleteFamily(context.Background(), family.ID); err != nil {
		t.Fatalf("delete family: %v", err)
	}
	if len(userRepo.detachedFamilies) != 1 || userRepo.detachedFamilies[0] != family.ID {
		t.Fatalf("expected users detached, got %v", userRepo.detachedFamilies)
	}
	if len(memberRepo.deletedFamilies) != 1 {
		t.Fatalf("expected roster cleared, got %v", memberRepo.deletedFamilies)
	}
	if len(inviteRepo.deletedFamilies) != 1 {
		t.Fatalf("expected invitations cleared, got %v", inviteRepo.deletedFamilies)
	}
	if len(familyRepo.deleted) != 1 || familyRepo.deleted[0] != family.ID {
		t.Fatalf("expected family deleted, got %v", familyRepo.deleted)
	}
}

func TestAdminDeleteFamilyNotFound(t *testing.T) {
	svc := newTestService(t, Repos{
		Users:       newStubUserRepo(),
		Members:     &stubMembersRepo{},
		Families:    &stubFamilyRepo{},
		Invitations: &stubInvitationsRepo{},
	})

	err := svc.DeleteFamily(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func newTestService(t *testing.T, repos Repos) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:          stubTxRunner{},
		Repos:       repos,
		TxRepos:     func(*gorm.DB) Repos { return repos },
		Logger:      testLogger(),
		App:         config.AppConfig{BaseURL: "http://localhost:5000"},
		Invitations: config.InvitationsConfig{TTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func baseUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		Email:     "john@example.com",
		FirstName: "John",
		LastName:  "Smith",
		Roles:     []string{string(enums.RoleUser)},
	}
}

// managedFamily returns a manager already attached to their family.
func managedFamily() (*models.User, *models.Family) {
	manager := baseUser()
	manager.Roles = []string{string(enums.RoleUser), string(enums.RoleFamilyManager)}
	family := &models.Family{
		ID:        uuid.New(),
		Name:      "Smith Family",
		Slug:      "smith-family",
		ManagerID: manager.ID,
	}
	manager.FamilyID = &family.ID
	return manager, family
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepo struct {
	users            map[uuid.UUID]*models.User
	managerCount     int64
	countErr         error
	listErr          error
	updated          []*models.User
	detachedUsers    []uuid.UUID
	detachedFamilies []uuid.UUID
}

func newStubUserRepo(seed ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{users: map[uuid.UUID]*models.User{}}
	for _, user := range seed {
		repo.users[user.ID] = user
	}
	return repo
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var found []models.User
	for _, user := range s.users {
		if user.FamilyID != nil && *user.FamilyID == familyID {
			found = append(found, *user)
		}
	}
	return found, nil
}

func (s *stubUserRepo) CountFamilyManagers(ctx context.Context, familyID uuid.UUID, role string) (int64, error) {
	return s.managerCount, s.countErr
}

func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	s.updated = append(s.updated, user)
	s.users[user.ID] = user
	return nil
}

func (s *stubUserRepo) UpdateFamilyID(ctx context.Context, id uuid.UUID, familyID *uuid.UUID) error {
	if familyID == nil {
		s.detachedUsers = append(s.detachedUsers, id)
	}
	if user, ok := s.users[id]; ok {
		user.FamilyID = familyID
	}
	return nil
}

func (s *stubUserRepo) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	if user, ok := s.users[id]; ok {
		user.Roles = roles
	}
	return nil
}

func (s *stubUserRepo) DetachFamily(ctx context.Context, familyID uuid.UUID) error {
	s.detachedFamilies = append(s.detachedFamilies, familyID)
	for _, user := range s.users {
		if user.FamilyID != nil && *user.FamilyID == familyID {
			user.FamilyID = nil
		}
	}
	return nil
}

func (s *stubUserRepo) rolesFor(id uuid.UUID) []string {
	if user, ok := s.users[id]; ok {
		return user.Roles
	}
	return nil
}

func (s *stubUserRepo) familyFor(id uuid.UUID) *uuid.UUID {
	if user, ok := s.users[id]; ok {
		return user.FamilyID
	}
	return nil
}

func (s *stubUserRepo) lastUpdated() *models.User {
	if len(s.updated) == 0 {
		return nil
	}
	return s.updated[len(s.updated)-1]
}

type stubMembersRepo struct {
	created         []members.CreateMemberDTO
	createErr       error
	member          *models.FamilyMember
	findErr         error
	list            []models.FamilyMember
	updated         []*models.FamilyMember
	updateErr       error
	deleted         []uuid.UUID
	deletedFamilies []uuid.UUID
}

func (s *stubMembersRepo) Create(ctx context.Context, dto members.CreateMemberDTO) (*models.FamilyMember, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, dto)
	member := dto.ToModel()
	member.ID = uuid.New()
	return member, nil
}

func (s *stubMembersRepo) FindInFamily(ctx context.Context, familyID, memberID uuid.UUID) (*models.FamilyMember, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.member == nil || s.member.ID != memberID || s.member.FamilyID != familyID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.member, nil
}

func (s *stubMembersRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.FamilyMember, error) {
	return s.list, nil
}

func (s *stubMembersRepo) Update(ctx context.Context, member *models.FamilyMember) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, member)
	return nil
}

func (s *stubMembersRepo) Delete(ctx context.Context, memberID uuid.UUID) error {
	s.deleted = append(s.deleted, memberID)
	return nil
}

func (s *stubMembersRepo) DeleteByFamily(ctx context.Context, familyID uuid.UUID) error {
	s.deletedFamilies = append(s.deletedFamilies, familyID)
	return nil
}

type stubFamilyRepo struct {
	family     *models.Family
	findErr    error
	list       []models.Family
	created    []*models.Family
	createErrs []error
	createErr  error
	updateErr  error
	updated    []*models.Family
	deleted    []uuid.UUID
}

func (s *stubFamilyRepo) Create(ctx context.Context, family *models.Family) error {
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	} else if s.createErr != nil {
		return s.createErr
	}
	if family.ID == uuid.Nil {
		family.ID = uuid.New()
	}
	s.created = append(s.created, family)
	return nil
}

func (s *stubFamilyRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Family, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.family == nil || s.family.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.family, nil
}

func (s *stubFamilyRepo) List(ctx context.Context) ([]models.Family, error) {
	return s.list, nil
}

func (s *stubFamilyRepo) Update(ctx context.Context, family *models.Family) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, family)
	return nil
}

func (s *stubFamilyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubInvitationsRepo struct {
	created         []*models.FamilyInvitation
	createErr       error
	invitation      *models.FamilyInvitation
	findErr         error
	list            []models.FamilyInvitation
	deletedTokens   []string
	deletedFamilies []uuid.UUID
}

func (s *stubInvitationsRepo) Create(ctx context.Context, invitation *models.FamilyInvitation) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, invitation)
	return nil
}

func (s *stubInvitationsRepo) FindValidByToken(ctx context.Context, token string, now time.Time) (*models.FamilyInvitation, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.invitation == nil || s.invitation.Token != token || s.invitation.ExpiresAt.Before(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return s.invitation, nil
}

func (s *stubInvitationsRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]models.FamilyInvitation, error) {
	return s.list, nil
}

func (s *stubInvitationsRepo) DeleteByToken(ctx context.Context, token string) error {
	s.deletedTokens = append(s.deletedTokens, token)
	return nil
}

func (s *stubInvitationsRepo) DeleteByFamily(ctx context.Context, familyID uuid.UUID) error {
	s.deletedFamilies = append(s.deletedFamilies, familyID)
	return nil
}

func stringPtr(s string) *string { return &s }
