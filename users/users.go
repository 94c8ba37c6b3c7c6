package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mentra/db"
	"mentra/models"
	"mentra/utils"
)

// GetBrief fetches the embeddable subset of a user document. A missing user
// yields a zero brief rather than an error; responses tolerate dangling ids.
func GetBrief(ctx context.Context, userID string) models.UserBrief {
	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err != nil {
		return models.UserBrief{UserID: userID}
	}
	return models.UserBrief{UserID: user.UserID, Username: user.Username, Email: user.Email}
}

// GET /api/users/:userid
func GetUserProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userid")
	if userID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing userid")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Error fetching user")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": user})
}
